// internal/app/system/csvutil/csvutil.go
package csvutil

import (
	"encoding/csv"
	"io"
	"path"
	"strings"
	"time"

	"github.com/dalemusser/churchroll/internal/app/system/limits"
	"github.com/dalemusser/churchroll/internal/domain/models"
)

// MaxRows caps a single export.
const MaxRows = limits.MaxExportRows

// RosterHeader is the first line of a member roster export.
var RosterHeader = []string{
	"Full Name", "Church", "Status", "Gender", "Phone", "Email",
	"Birth Date", "Baptism Date", "Status Date", "Cause of Death",
}

// RosterRow pairs a member with the display name of its church.
type RosterRow struct {
	Member     models.Member
	ChurchName string
}

// WriteRoster writes the header and one record per row.
func WriteRoster(w io.Writer, rows []RosterRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(RosterHeader); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write(record(row)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func record(row RosterRow) []string {
	m := row.Member
	var cause string
	if m.CauseOfDeath != nil {
		cause = *m.CauseOfDeath
	}
	return []string{
		safe(m.FullName),
		safe(row.ChurchName),
		m.Status,
		m.Gender,
		safe(m.Phone),
		safe(m.Email),
		date(m.BirthDate),
		date(m.BaptismDate),
		date(statusDate(m)),
		safe(cause),
	}
}

// statusDate returns whichever status-specific date is set.
func statusDate(m models.Member) *time.Time {
	switch {
	case m.ResignationDate != nil:
		return m.ResignationDate
	case m.DisfellowshipDate != nil:
		return m.DisfellowshipDate
	}
	return m.DateOfDeath
}

func date(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

// safe neutralizes values a spreadsheet would evaluate as a formula.
func safe(s string) string {
	if s != "" && strings.ContainsRune("=+-@\t\r", rune(s[0])) {
		return "'" + s
	}
	return s
}

// Filename returns requested reduced to a bare name ending in .csv, or
// prefix plus a UTC timestamp when requested is empty.
func Filename(prefix, requested string, now time.Time) string {
	name := strings.TrimSpace(path.Base(strings.ReplaceAll(requested, "\\", "/")))
	if name == "" || name == "." || name == "/" {
		name = prefix + "_" + now.UTC().Format("20060102_150405")
	}
	if !strings.HasSuffix(strings.ToLower(name), ".csv") {
		name += ".csv"
	}
	return name
}
