// Package extract turns raw page markup into a structured PageRecord.
package extract

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/aluiziolira/go-scrape-to-json/models"
)

// Extract parses html fetched from pageURL into a PageRecord. It never
// fails: markup with no extractable content yields a record with an empty
// body, which downstream stages treat as data.
func Extract(pageURL, html string, fetchedAt time.Time) *models.PageRecord {
	record := &models.PageRecord{
		URL:       pageURL,
		URLHash:   models.URLHash(pageURL),
		Headings:  []models.Heading{},
		Tables:    []models.Table{},
		Links:     []string{},
		FetchedAt: fetchedAt,
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return record
	}

	record.Title = strings.TrimSpace(doc.Find("title").First().Text())
	record.TextContent = normalizeText(doc.Text())
	record.Headings = headings(doc)
	record.Tables = tables(doc)
	record.Links = links(doc, pageURL)

	return record
}

// normalizeText collapses all whitespace runs to single spaces.
func normalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func headings(doc *goquery.Document) []models.Heading {
	out := []models.Heading{}
	for level := 1; level <= 6; level++ {
		doc.Find(fmt.Sprintf("h%d", level)).Each(func(_ int, sel *goquery.Selection) {
			out = append(out, models.Heading{
				Level: level,
				Text:  strings.TrimSpace(sel.Text()),
			})
		})
	}
	return out
}

func tables(doc *goquery.Document) []models.Table {
	out := []models.Table{}
	doc.Find("table").Each(func(_ int, tbl *goquery.Selection) {
		table := models.Table{}
		tbl.Find("tr").Each(func(_ int, row *goquery.Selection) {
			cells := []string{}
			row.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, strings.TrimSpace(cell.Text()))
			})
			if len(cells) > 0 {
				table = append(table, cells)
			}
		})
		if len(table) > 0 {
			out = append(out, table)
		}
	})
	return out
}

// links resolves every anchor href against the page URL, keeping only
// http(s) targets.
func links(doc *goquery.Document, pageURL string) []string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return []string{}
	}

	out := []string{}
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			return
		}
		out = append(out, abs.String())
	})
	return out
}
