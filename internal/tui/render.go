package tui

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"github.com/swelljoe/wthr-widget/internal/weather"
)

const defaultSlotsPerRow = 8

// renderReport lays out a weather report for a terminal of the given width.
func renderReport(r *weather.Report, width int) string {
	var sections []string

	sections = append(sections, titleStyle.Render("📍 "+r.Location))
	if r.UpdatedAt != "" {
		sections = append(sections, mutedStyle.Render("Last updated: "+r.UpdatedAt))
	}
	sections = append(sections, "")

	current := fmt.Sprintf("%s  %s  %s",
		r.Current.Icon,
		temperatureStyle.Render(fmt.Sprintf("%d°C", r.Current.Temperature)),
		r.Current.Description)
	sections = append(sections, current, r.Current.Wind.Icon+" "+r.Summary, "")

	details := [][2]string{
		{"Humidity", r.Details.Humidity},
		{"Wind Speed", strconv.FormatFloat(r.Current.WindSpeed, 'f', -1, 64) + " km/h"},
		{"Visibility", r.Details.Visibility},
		{"UV Index", r.Details.UVIndex},
		{"Sunrise", r.Details.Sunrise},
		{"Sunset", r.Details.Sunset},
	}
	var cells []string
	for _, d := range details {
		cells = append(cells, slotStyle.Width(14).Render(
			lipgloss.JoinVertical(lipgloss.Center, labelStyle.Render(d[0]), d[1])))
	}
	sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, cells...))

	perRow := slotsPerRow(width)

	sections = append(sections, sectionHeaderStyle.Render("24-Hour Forecast"))
	cells = cells[:0]
	for _, h := range r.Hourly {
		cells = append(cells, slot(h.Label, h.Icon, fmt.Sprintf("%d°C", h.Temperature), h.PrecipChance, h.WindSpeed))
	}
	sections = append(sections, grid(cells, perRow))

	sections = append(sections, sectionHeaderStyle.Render("5-Day Forecast"))
	cells = cells[:0]
	for _, d := range r.Daily {
		cells = append(cells, slot(d.Label, d.Icon, fmt.Sprintf("%d° / %d°", d.High, d.Low), d.PrecipChance, d.WindSpeed))
	}
	sections = append(sections, grid(cells, perRow))

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func slot(label, icon, temp string, precip, wind int) string {
	return slotStyle.Render(lipgloss.JoinVertical(lipgloss.Center,
		labelStyle.Render(label),
		icon,
		temp,
		mutedStyle.Render(fmt.Sprintf("☂ %d%%", precip)),
		mutedStyle.Render(fmt.Sprintf("%d km/h", wind)),
	))
}

// grid wraps cells into rows of perRow.
func grid(cells []string, perRow int) string {
	var rows []string
	for start := 0; start < len(cells); start += perRow {
		end := min(start+perRow, len(cells))
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells[start:end]...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func slotsPerRow(width int) int {
	if width <= 0 {
		return defaultSlotsPerRow
	}
	// card border and padding take six columns
	n := (width - 6) / slotStyle.GetWidth()
	return max(1, n)
}
