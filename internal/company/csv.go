package company

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// FilterColumns is the stage-boundary column order written by the
// geographic filter.
var FilterColumns = []string{
	"organisasjonsnummer",
	"navn",
	"antallAnsatte",
	"adresse",
	"latitude",
	"longitude",
	"geohash",
	"naeringskode",
	"naeringskode_beskrivelse",
	"source",
}

// EnrichColumns is the column order written by the enrichment stage.
var EnrichColumns = append(append([]string{}, FilterColumns...),
	"hjemmeside",
	"epostadresse",
	"telefon",
	"mobil",
	"proff_url",
)

var contactPrefixes = [maxContacts]string{"kontakt", "kontakt2", "kontakt3", "kontakt4"}

// ColumnValue renders the named stage-CSV column from the record.
// Unknown columns render as empty so writers with a fixed column order
// never fail on sparse records.
func (c Company) ColumnValue(col string) string {
	for i, prefix := range contactPrefixes {
		switch col {
		case prefix + "_navn":
			return c.Contacts[i].Name
		case prefix + "_rolle":
			return c.Contacts[i].Role
		case prefix + "_telefon":
			return c.Contacts[i].Phone
		case prefix + "_epost":
			return c.Contacts[i].Email
		}
	}

	switch col {
	case "organisasjonsnummer":
		return c.OrgNumber
	case "navn":
		return c.Name
	case "antallAnsatte":
		return c.EmployeesString()
	case "adresse":
		return c.Address
	case "postnummer":
		return c.PostalCode
	case "poststed":
		return c.City
	case "kommunenummer":
		return c.MunicipalityCode
	case "naeringskode":
		return c.IndustryCode
	case "naeringskode_beskrivelse":
		return c.IndustryDesc
	case "source":
		return c.Source
	case "latitude":
		if !c.HasLocation {
			return ""
		}
		return strconv.FormatFloat(c.Lat, 'f', -1, 64)
	case "longitude":
		if !c.HasLocation {
			return ""
		}
		return strconv.FormatFloat(c.Lon, 'f', -1, 64)
	case "geohash":
		return c.Geohash
	case "hjemmeside":
		return c.Website
	case "epostadresse":
		return c.Email
	case "telefon":
		return c.Phone
	case "mobil":
		return c.Mobile
	case "proff_url":
		return c.ProffURL
	case "salgsnotater":
		return c.SalesNotes
	}
	return ""
}

// setColumn assigns the named column into the record; unknown columns
// are ignored so extra manually added CSV columns do not break reads.
func (c *Company) setColumn(col, val string) {
	for i, prefix := range contactPrefixes {
		switch col {
		case prefix + "_navn":
			c.Contacts[i].Name = val
			return
		case prefix + "_rolle":
			c.Contacts[i].Role = val
			return
		case prefix + "_telefon":
			c.Contacts[i].Phone = val
			return
		case prefix + "_epost":
			c.Contacts[i].Email = val
			return
		}
	}

	switch col {
	case "organisasjonsnummer":
		c.OrgNumber = val
	case "navn":
		c.Name = val
	case "antallAnsatte":
		c.SetEmployees(val)
	case "adresse":
		c.Address = val
	case "postnummer":
		c.PostalCode = val
	case "poststed":
		c.City = val
	case "kommunenummer":
		c.MunicipalityCode = val
	case "naeringskode":
		c.IndustryCode = val
	case "naeringskode_beskrivelse":
		c.IndustryDesc = val
	case "source":
		c.Source = val
	case "latitude":
		if lat, err := strconv.ParseFloat(val, 64); err == nil {
			c.Lat = lat
			c.latSet = true
		}
	case "longitude":
		if lon, err := strconv.ParseFloat(val, 64); err == nil {
			c.Lon = lon
			c.lonSet = true
		}
	case "geohash":
		c.Geohash = val
	case "hjemmeside":
		c.Website = val
	case "epostadresse":
		c.Email = val
	case "telefon":
		c.Phone = val
	case "mobil":
		c.Mobile = val
	case "proff_url":
		c.ProffURL = val
	case "salgsnotater":
		c.SalesNotes = val
	}
}

// ReadCSV loads a stage CSV. Columns are matched by header name, so files
// with extra manually added columns (contact research) or a subset of
// columns load fine.
func ReadCSV(path string) ([]Company, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer fh.Close()

	r := csv.NewReader(fh)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := records[0]
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	rows := make([]Company, 0, len(records)-1)
	for _, rec := range records[1:] {
		var c Company
		for i, col := range header {
			if i >= len(rec) {
				break
			}
			c.setColumn(col, rec[i])
		}
		c.HasLocation = c.latSet && c.lonSet
		rows = append(rows, c)
	}
	return rows, nil
}

// WriteCSV writes rows in the given fixed column order, header first.
func WriteCSV(path string, rows []Company, columns []string) error {
	fh, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer fh.Close()

	w := csv.NewWriter(fh)
	if err := w.Write(columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	record := make([]string, len(columns))
	for _, c := range rows {
		for i, col := range columns {
			record[i] = c.ColumnValue(col)
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("writing row for %s: %w", c.OrgNumber, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing %s: %w", path, err)
	}
	return nil
}
