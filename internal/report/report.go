// Package report renders the pipeline's HTML outputs: the enrich-stage
// table report and the per-area ranked card report.
package report

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/johanhal/carpool-crm/internal/company"
	"github.com/johanhal/carpool-crm/internal/enrich"
)

// Keyword groups feeding the carpool-potential score. Matching is
// substring-based on the lowercased industry description (and, for the
// bonus groups, the company name too).
var (
	shiftKeywords = []string{
		"produksjon", "industri", "lager", "logistikk", "sikkerhet", "vakt",
		"helse", "sykehus", "pleie", "omsorg", "renhold", "transport",
	}
	publicKeywords   = []string{"kommune", "stat", "offentlig", "universitet", "skole", "barnehage"}
	researchKeywords = []string{"forskning", "institutt", "universitet", "vitenskapelig"}
)

// Score estimates carpool potential on a 0-100 scale: employee head
// count up to 50 points, shift-work industries 30, public sector and
// research environments 10 each.
func Score(c company.Company) int {
	score := 0

	switch {
	case c.Employees >= 500:
		score += 50
	case c.Employees >= 200:
		score += 40
	case c.Employees >= 100:
		score += 30
	case c.Employees >= 50:
		score += 20
	case c.Employees >= 20:
		score += 10
	}

	industry := strings.ToLower(c.IndustryDesc)
	name := strings.ToLower(c.Name)

	if containsAny(industry, shiftKeywords) {
		score += 30
	}
	if containsAny(industry, publicKeywords) || containsAny(name, publicKeywords) {
		score += 10
	}
	if containsAny(industry, researchKeywords) || containsAny(name, researchKeywords) {
		score += 10
	}

	if score > 100 {
		score = 100
	}
	return score
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func scoreClass(score int) string {
	switch {
	case score >= 70:
		return "score-high"
	case score >= 40:
		return "score-medium"
	default:
		return "score-low"
	}
}

// marker is one map point. Rows missing either coordinate get no marker.
type marker struct {
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Name      string  `json:"name"`
	Employees string  `json:"employees"`
	Address   string  `json:"address"`
	Score     int     `json:"score"`
}

func markerJSON(markers []marker) (template.JS, error) {
	if markers == nil {
		markers = []marker{}
	}
	data, err := json.Marshal(markers)
	if err != nil {
		return "", fmt.Errorf("encoding map markers: %w", err)
	}
	return template.JS(data), nil
}

// tableRow is one row of the enrich-stage report.
type tableRow struct {
	Name        string
	Employees   string
	Address     string
	Industry    string
	Website     string
	ContactName string
	ContactRole string
	Email       string
	Phone       string
	SalesNotes  string
	ProffURL    string
}

type tablePage struct {
	Title          string
	Total          int
	TotalEmployees int
	SyncCommand    string
	Rows           []tableRow
	Markers        template.JS
	Generated      string
}

// RenderTable writes the enrich-stage report: a stats band, a sortable
// company table, a toggleable map, and a modal showing the sheets-sync
// command for csvPath.
func RenderTable(w io.Writer, rows []company.Company, title, csvPath string) error {
	page := tablePage{
		Title:       title,
		Total:       len(rows),
		SyncCommand: fmt.Sprintf("carpool sheets sync %q", csvPath),
		Generated:   time.Now().Format("2006-01-02 15:04"),
	}

	var markers []marker
	for _, c := range rows {
		if c.EmployeesKnown {
			page.TotalEmployees += c.Employees
		}
		industry := c.IndustryDesc
		if r := []rune(industry); len(r) > 50 {
			industry = string(r[:50]) + "..."
		}
		page.Rows = append(page.Rows, tableRow{
			Name:        c.Name,
			Employees:   c.EmployeesString(),
			Address:     c.Address,
			Industry:    industry,
			Website:     c.Website,
			ContactName: c.Contacts[0].Name,
			ContactRole: c.Contacts[0].Role,
			Email:       c.BestEmail(),
			Phone:       c.BestPhone(),
			SalesNotes:  c.SalesNotes,
			ProffURL:    c.ProffURL,
		})
		if c.HasLocation {
			markers = append(markers, marker{
				Lat: c.Lat, Lon: c.Lon,
				Name: c.Name, Employees: c.EmployeesString(), Address: c.Address,
			})
		}
	}

	js, err := markerJSON(markers)
	if err != nil {
		return err
	}
	page.Markers = js

	if err := tableTmpl.Execute(w, page); err != nil {
		return fmt.Errorf("rendering table report: %w", err)
	}
	return nil
}

// cardContact is one contact person on a card.
type cardContact struct {
	Name      string
	Role      string
	Phone     string
	PhoneLink string
	Email     string
}

// card is one ranked company card.
type card struct {
	Rank       int
	Name       string
	Employees  string
	Score      int
	ScoreClass string
	Address    string
	Industry   string
	Website    string
	ProffURL   string
	Contacts   []cardContact
	SalesNotes string
}

type cardsPage struct {
	AreaName       string
	Total          int
	TotalEmployees int
	Cards          []card
	Markers        template.JS
	Generated      string
}

// RenderCards writes the per-area report: cards ranked by carpool
// potential with sort controls and a map.
func RenderCards(w io.Writer, rows []company.Company, areaName string) error {
	scored := make([]company.Company, len(rows))
	copy(scored, rows)
	sort.SliceStable(scored, func(i, j int) bool {
		return Score(scored[i]) > Score(scored[j])
	})

	page := cardsPage{
		AreaName:  areaName,
		Total:     len(scored),
		Generated: time.Now().Format("2006-01-02 15:04"),
	}

	var markers []marker
	for i, c := range scored {
		score := Score(c)
		if c.EmployeesKnown {
			page.TotalEmployees += c.Employees
		}

		var contacts []cardContact
		for _, p := range c.Contacts {
			if strings.TrimSpace(p.Name) == "" {
				continue
			}
			contacts = append(contacts, cardContact{
				Name:      p.Name,
				Role:      p.Role,
				Phone:     p.Phone,
				PhoneLink: strings.ReplaceAll(p.Phone, " ", ""),
				Email:     p.Email,
			})
		}

		proffURL := c.ProffURL
		if proffURL == "" {
			proffURL = enrich.ProffURL(c.OrgNumber)
		}

		page.Cards = append(page.Cards, card{
			Rank:       i + 1,
			Name:       c.Name,
			Employees:  c.EmployeesString(),
			Score:      score,
			ScoreClass: scoreClass(score),
			Address:    c.Address,
			Industry:   c.IndustryDesc,
			Website:    c.Website,
			ProffURL:   proffURL,
			Contacts:   contacts,
			SalesNotes: c.SalesNotes,
		})
		if c.HasLocation {
			markers = append(markers, marker{
				Lat: c.Lat, Lon: c.Lon,
				Name: c.Name, Employees: c.EmployeesString(), Address: c.Address,
				Score: score,
			})
		}
	}

	js, err := markerJSON(markers)
	if err != nil {
		return err
	}
	page.Markers = js

	if err := cardsTmpl.Execute(w, page); err != nil {
		return fmt.Errorf("rendering card report: %w", err)
	}
	return nil
}
