package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Wyydra/huddle/internal/config"
	"github.com/Wyydra/huddle/internal/core/service"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var flagServer string

var roomsCmd = &cobra.Command{
	Use:   "rooms",
	Short: "Show the live rooms of a running server",
	RunE: func(cmd *cobra.Command, args []string) error {
		rooms, err := fetchRooms(flagServer)
		if err != nil {
			return err
		}

		fmt.Println(titleStyle.Render("Rooms on " + flagServer))
		if len(rooms) == 0 {
			fmt.Println(mutedStyle.Render("No active rooms"))
			return nil
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"Room", "Members", "Names"})
		for _, r := range rooms {
			t.AppendRow(table.Row{r.Name, len(r.Members), strings.Join(r.Members, ", ")})
		}
		t.Render()
		return nil
	},
}

func init() {
	roomsCmd.Flags().StringVarP(&flagServer, "server", "s", "http://localhost"+config.DefaultListenAddr, "base URL of the server")
}

func fetchRooms(base string) ([]service.RoomSummary, error) {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(strings.TrimSuffix(base, "/") + "/api/rooms")
	if err != nil {
		return nil, fmt.Errorf("fetch rooms: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch rooms: %s", resp.Status)
	}

	var body struct {
		Rooms []service.RoomSummary `json:"rooms"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode rooms: %w", err)
	}
	return body.Rooms, nil
}
