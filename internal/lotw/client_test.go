package lotw

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestUpload(t *testing.T) {
	var gotBody string
	var gotDisposition string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		gotDisposition = r.Header.Get("Content-Disposition")
		w.Write([]byte("File queued for processing"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.URL, srv.URL, 5*time.Second)

	resp, err := c.Upload(context.Background(), "W1XYZ", "signed-payload")
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if resp != "File queued for processing" {
		t.Errorf("response = %q", resp)
	}
	if gotBody != "signed-payload" {
		t.Errorf("uploaded body = %q", gotBody)
	}
	if !strings.Contains(gotDisposition, "W1XYZ.tq8") {
		t.Errorf("Content-Disposition = %q", gotDisposition)
	}
}

func TestUploadServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rejected", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.URL, srv.URL, 5*time.Second)

	if _, err := c.Upload(context.Background(), "W1XYZ", "payload"); err == nil {
		t.Error("expected error for non-200 response")
	}
}

func TestDownload(t *testing.T) {
	report := "<PROGRAMID:4>LoTW<EOH><CALL:5>AA1BC<QSO_DATE:8>20240501<TIME_ON:6>140230<EOR>"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("login") != "w1xyz" || q.Get("password") != "hunter2" {
			t.Errorf("unexpected credentials: %s / %s", q.Get("login"), q.Get("password"))
		}
		if q.Get("qso_query") != "1" {
			t.Error("qso_query parameter missing")
		}
		if q.Get("qso_qsl_since") != "2024-01-01" {
			t.Errorf("qso_qsl_since = %q", q.Get("qso_qsl_since"))
		}
		w.Write([]byte(report))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.URL, srv.URL, 5*time.Second)

	text, err := c.Download(context.Background(), Credentials{Username: "w1xyz", Password: "hunter2"}, "2024-01-01", "")
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if text != report {
		t.Errorf("report = %q", text)
	}
}

func TestDownloadInvalidLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>Invalid login or password</html>"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.URL, srv.URL, 5*time.Second)

	if _, err := c.Download(context.Background(), Credentials{Username: "x", Password: "y"}, "", ""); err == nil {
		t.Error("expected error for rejected login")
	}
}

func TestDownloadServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.URL, srv.URL, 5*time.Second)

	if _, err := c.Download(context.Background(), Credentials{}, "", ""); err == nil {
		t.Error("expected error for non-200 response")
	}
}

func TestValidateCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Rejected logins bounce to the login page, which itself
		// serves 200.
		if r.URL.Path == "/lotwuser/login" {
			w.Write([]byte("<html>Login to Logbook</html>"))
			return
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("bad form: %v", err)
		}
		if r.PostForm.Get("login") == "good" {
			w.WriteHeader(http.StatusOK)
			return
		}
		http.Redirect(w, r, "/lotwuser/login", http.StatusFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.URL, srv.URL, 5*time.Second)

	ok, err := c.ValidateCredentials(context.Background(), "good", "pw")
	if err != nil {
		t.Fatalf("ValidateCredentials() error = %v", err)
	}
	if !ok {
		t.Error("expected valid credentials to pass")
	}

	ok, err = c.ValidateCredentials(context.Background(), "bad", "pw")
	if err != nil {
		t.Fatalf("ValidateCredentials() error = %v", err)
	}
	if ok {
		t.Error("expected rejected credentials to fail")
	}
}
