package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/brewco/cafe/internal/client"
	"github.com/brewco/cafe/internal/model"
	"github.com/brewco/cafe/internal/ui"
)

const timeLayout = "2006-01-02 15:04:05"

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

func printStatus(w io.Writer, st *model.ShopStatus) {
	fmt.Fprintf(w, "Row:      %d\n", st.ID)
	fmt.Fprintf(w, "Status:   %s\n", ui.RenderState(model.DisplayStateFor(st.IsOpen)))
	if !st.UpdatedAt.IsZero() {
		fmt.Fprintf(w, "Updated:  %s\n", st.UpdatedAt.Local().Format(timeLayout))
	}
}

func printStatusView(w io.Writer, v *client.StatusView) {
	printStatus(w, &v.ShopStatus)
	if v.Hours != "" {
		fmt.Fprintf(w, "Hours:    %s\n", ui.RenderHours(v.WithinHours, v.Hours))
	}
}

func printMenuTable(w io.Writer, items []*model.MenuItem) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCATEGORY\tPRICE\tNAME\t")
	for _, it := range items {
		name := it.Name
		if it.BestSeller {
			name += " ★"
		}
		fmt.Fprintf(tw, "%d\t%s\t%.2f\t%s\t\n", it.ID, it.Category, it.Price, name)
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d items\n", len(items))
}

func printMenuItem(w io.Writer, it *model.MenuItem) {
	fmt.Fprintf(w, "ID:          %d\n", it.ID)
	fmt.Fprintf(w, "Name:        %s\n", it.Name)
	fmt.Fprintf(w, "Category:    %s\n", it.Category)
	fmt.Fprintf(w, "Price:       %.2f\n", it.Price)
	if it.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", it.Description)
	}
	if it.BestSeller {
		fmt.Fprintln(w, "Best seller: yes")
	}
	if it.ImageURL != "" {
		fmt.Fprintf(w, "Image:       %s\n", it.ImageURL)
	}
	if !it.UpdatedAt.IsZero() {
		fmt.Fprintf(w, "Updated At:  %s\n", it.UpdatedAt.Local().Format(timeLayout))
	}
}

func printPhotos(w io.Writer, photos []*model.Photo) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tIMAGE\tCAPTION\t")
	for _, p := range photos {
		fmt.Fprintf(tw, "%d\t%s\t%s\t\n", p.ID, p.ImageURL, p.Caption)
	}
	tw.Flush()
}

func printHero(w io.Writer, h *model.Hero) {
	fmt.Fprintf(w, "Title:     %s\n", h.Title)
	if h.Subtitle != "" {
		fmt.Fprintf(w, "Subtitle:  %s\n", h.Subtitle)
	}
	if h.ImageURL != "" {
		fmt.Fprintf(w, "Image:     %s\n", h.ImageURL)
	}
}

func printEvents(w io.Writer, evs []*model.Event) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tTOPIC\tROW\tACTOR\t")
	for _, e := range evs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t\n",
			e.CreatedAt.Local().Format(timeLayout), e.Topic, e.RowID, e.Actor)
	}
	tw.Flush()
}

func printWatchers(w io.Writer, resp *client.WatchersResponse) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTRANSPORT\tREMOTE\tDELIVERED\tIDLE\tTOPICS\t")
	for _, e := range resp.Watchers {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%.0fs\t%s\t\n",
			e.ID, e.Transport, e.Remote, e.Delivered, e.IdleSecs, strings.Join(e.Topics, ","))
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d watchers\n", resp.Count)
}
