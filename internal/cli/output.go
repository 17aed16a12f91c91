package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/AlessandroGasperini/pinky/internal/model"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]any{
			"error": map[string]string{"message": err.Error()},
		})
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case *model.Room:
		o.printRoom(v)
	case []model.Player:
		o.printPlayers(v)
	case []model.Category:
		o.printCategories(v)
	case map[model.PlayerID]int:
		o.printScores(v, nil)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printRoom(room *model.Room) {
	fmt.Printf("Room %s (code %s)\n", room.ID, room.Code)
	fmt.Printf("  Status: %s\n", room.Status)
	fmt.Printf("  Phase:  %s\n", room.Phase)
	fmt.Printf("  Round:  %d of %d\n", room.CurrentRound, room.GameLength)
	if room.CategoryChooserID != "" {
		fmt.Printf("  Chooser: %s\n", room.CategoryChooserID)
	}
	if room.CurrentCategoryID != "" {
		fmt.Printf("  Category: %s\n", room.CurrentCategoryID)
	}
}

func (o *Output) printPlayers(players []model.Player) {
	fmt.Printf("Players (%d):\n", len(players))
	for _, p := range players {
		markers := []string{}
		if p.IsHost {
			markers = append(markers, "host")
		}
		if !p.IsActive {
			markers = append(markers, "inactive")
		}
		suffix := ""
		if len(markers) > 0 {
			suffix = " (" + strings.Join(markers, ", ") + ")"
		}
		fmt.Printf("  %s %s%s\n", p.Avatar, p.Name, suffix)
	}
}

func (o *Output) printCategories(categories []model.Category) {
	fmt.Printf("Categories (%d):\n", len(categories))
	for _, c := range categories {
		fmt.Printf("  %s: %s - %s\n", c.ID, c.Name, c.Description)
	}
}

// printScores prints totals sorted high to low; names maps ids to
// display names when known
func (o *Output) printScores(scores map[model.PlayerID]int, names map[model.PlayerID]string) {
	type entry struct {
		id     model.PlayerID
		points int
	}
	entries := make([]entry, 0, len(scores))
	for id, points := range scores {
		entries = append(entries, entry{id, points})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].points != entries[j].points {
			return entries[i].points > entries[j].points
		}
		return entries[i].id < entries[j].id
	})

	fmt.Println("Scores:")
	for _, e := range entries {
		label := string(e.id)
		if name, ok := names[e.id]; ok {
			label = name
		}
		fmt.Printf("  %s: %d\n", label, e.points)
	}
}
