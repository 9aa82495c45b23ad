// Package adif implements the ADIF record codec and the confirmation
// matcher used by the LoTW sync jobs.
//
// The wire grammar is length-prefixed: each field is `<NAME:LEN>`
// followed by exactly LEN bytes of value, records end with <EOR> and
// the file header ends with <EOH>. Field values are taken verbatim at
// the declared length; the parser never re-derives a boundary from
// surrounding punctuation, so values containing '<' survive intact.
package adif

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"nextlog-sync-server/internal/domain"
)

const (
	eorMarker = "<EOR>"
	eohMarker = "<EOH>"
)

// Encode renders contacts as an ADIF document suitable for LoTW
// upload. Required fields (CALL, QSO_DATE, TIME_ON, BAND, MODE,
// STATION_CALLSIGN) are always emitted; optional fields only when the
// contact carries a value. Date and time use the contact's UTC instant.
func Encode(contacts []*domain.Contact, stationCallsign string) string {
	var b strings.Builder

	b.WriteString("ADIF Export for LoTW Upload\n")
	writeField(&b, "ADIF_VER", "3.1.5")
	b.WriteString("\n")
	writeField(&b, "PROGRAMID", "Nextlog")
	b.WriteString("\n")
	writeField(&b, "PROGRAMVERSION", "1.0.0")
	b.WriteString("\n")
	b.WriteString(eohMarker)
	b.WriteString("\n\n")

	for _, c := range contacts {
		utc := c.Datetime.UTC()
		writeField(&b, "CALL", c.Callsign)
		writeField(&b, "QSO_DATE", utc.Format("20060102"))
		writeField(&b, "TIME_ON", utc.Format("150405"))
		writeField(&b, "BAND", c.Band)
		writeField(&b, "MODE", c.Mode)
		writeField(&b, "STATION_CALLSIGN", stationCallsign)

		if c.Frequency != 0 {
			writeField(&b, "FREQ", strconv.FormatFloat(c.Frequency, 'f', -1, 64))
		}
		writeField(&b, "RST_SENT", c.RSTSent)
		writeField(&b, "RST_RCVD", c.RSTRcvd)
		writeField(&b, "GRIDSQUARE", c.GridLocator)
		writeField(&b, "NAME", c.Name)
		writeField(&b, "QTH", c.QTH)
		writeField(&b, "STATE", c.State)
		writeField(&b, "COUNTRY", c.Country)
		if c.DXCC != 0 {
			writeField(&b, "DXCC", strconv.Itoa(c.DXCC))
		}
		if c.CQZ != 0 {
			writeField(&b, "CQZ", strconv.Itoa(c.CQZ))
		}
		if c.ITUZ != 0 {
			writeField(&b, "ITUZ", strconv.Itoa(c.ITUZ))
		}

		b.WriteString(eorMarker)
		b.WriteString("\n")
	}

	return b.String()
}

// writeField emits <NAME:len>value, skipping empty values entirely.
// The length is the byte length of the value.
func writeField(b *strings.Builder, name, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "<%s:%d>%s", name, len(value), value)
}

// Decode parses an ADIF confirmation report. Anything before the end
// of the header is ignored, blocks missing any of CALL, QSO_DATE or
// TIME_ON are dropped, and fields this server has no name for are kept
// in the confirmation's field bag. Decode never fails: garbage in,
// fewer records out.
func Decode(text string) []domain.Confirmation {
	text = stripHeader(text)

	var confirmations []domain.Confirmation
	for _, block := range strings.Split(text, eorMarker) {
		if strings.TrimSpace(block) == "" {
			continue
		}

		conf := decodeBlock(block)
		if conf.Call != "" && conf.QSODate != "" && conf.TimeOn != "" {
			confirmations = append(confirmations, conf)
		}
	}

	return confirmations
}

// stripHeader removes everything up to and including <EOH>, matched
// case-insensitively. Reports without a header pass through untouched.
func stripHeader(text string) string {
	upper := strings.ToUpper(text)
	if i := strings.Index(upper, eohMarker); i >= 0 {
		return text[i+len(eohMarker):]
	}
	return text
}

// decodeBlock runs a single cursor pass over one record. Free text
// between fields is skipped; a tag whose length cannot be honored is
// abandoned along with the rest of the block, since the remaining
// bytes can no longer be framed.
func decodeBlock(block string) domain.Confirmation {
	var conf domain.Confirmation

	i := 0
	for i < len(block) {
		open := strings.IndexByte(block[i:], '<')
		if open < 0 {
			break
		}
		i += open

		name, length, next, ok := parseTag(block[i:])
		if !ok {
			i++ // not a field tag, resume scanning after '<'
			continue
		}
		i += next

		if i+length > len(block) {
			break
		}
		value := block[i : i+length]
		i += length

		setField(&conf, name, value)
	}

	return conf
}

// parseTag reads `<NAME:LEN>` (an optional third component, the ADIF
// data type indicator, is tolerated and ignored). It returns the
// uppercased name, the declared value length and the offset just past
// '>'.
func parseTag(s string) (name string, length int, next int, ok bool) {
	close := strings.IndexByte(s, '>')
	if close < 0 {
		return "", 0, 0, false
	}

	parts := strings.Split(s[1:close], ":")
	if len(parts) != 2 && len(parts) != 3 {
		return "", 0, 0, false
	}

	length, err := strconv.Atoi(parts[1])
	if err != nil || length < 0 {
		return "", 0, 0, false
	}

	return strings.ToUpper(parts[0]), length, close + 1, true
}

func setField(conf *domain.Confirmation, name, value string) {
	switch name {
	case "CALL":
		conf.Call = value
	case "QSO_DATE":
		conf.QSODate = value
	case "TIME_ON":
		conf.TimeOn = value
	case "BAND":
		conf.Band = value
	case "MODE":
		conf.Mode = value
	case "FREQ":
		conf.Freq = value
	case "APP_LOTW_QSL_RCVD":
		conf.QslRcvd = value
	case "QSL_RCVD_DATE":
		conf.QslRcvdDate = value
	case "EOR", "EOH":
		// markers, not data
	default:
		conf.Fields.Set(name, value)
	}
}

// Hash returns the SHA-256 hex digest of an encoded document, recorded
// on upload logs to identify what was sent.
func Hash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
