package main

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/railbook/railbook/internal/booking"
	"github.com/railbook/railbook/internal/tui/theme"
	"github.com/spf13/cobra"
)

var trainsCmd = &cobra.Command{
	Use:   "trains",
	Short: "List, add, edit and delete trains",
}

var trainAddFlags struct {
	id         string
	name       string
	kind       string
	capacity   int
	frequency  string
	attributes string
}

var trainEditFlags struct {
	name       string
	kind       string
	capacity   int
	frequency  string
	attributes string
}

var trainsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List trains",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		trains, err := e.client.ListTrains(cmd.Context())
		if err != nil {
			return err
		}
		if len(trains) == 0 {
			_, _ = fmt.Fprintln(e.out, "No trains.")
			return nil
		}

		rows := make([][]string, 0, len(trains))
		for _, t := range trains {
			rows = append(rows, []string{t.ID, t.Name, t.Type, strconv.Itoa(t.TotalCapacity), t.Frequency})
		}
		_, _ = fmt.Fprintln(e.out, renderTable([]string{"ID", "Name", "Type", "Capacity", "Frequency"}, rows))
		return nil
	},
}

var trainsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a train",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t := booking.Train{
			ID:                trainAddFlags.id,
			Name:              trainAddFlags.name,
			Type:              strings.ToLower(trainAddFlags.kind),
			TotalCapacity:     trainAddFlags.capacity,
			Frequency:         strings.ToLower(trainAddFlags.frequency),
			SpecialAttributes: trainAddFlags.attributes,
		}
		if err := checkTrain(t); err != nil {
			return err
		}

		e, err := newEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.client.CreateTrain(cmd.Context(), t); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(e.out, "%s train %s (%s)\n",
			theme.Current().S().Success.Render("✓ Added"), t.Name, t.ID)
		return nil
	},
}

var trainsEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change a train; only the flags given are updated",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()
		trains, err := e.client.ListTrains(ctx)
		if err != nil {
			return err
		}
		t, ok := booking.ReferenceData{Trains: trains}.Train(args[0])
		if !ok {
			return fmt.Errorf("train %s not found", args[0])
		}

		f := cmd.Flags()
		if f.Changed("name") {
			t.Name = trainEditFlags.name
		}
		if f.Changed("type") {
			t.Type = strings.ToLower(trainEditFlags.kind)
		}
		if f.Changed("capacity") {
			t.TotalCapacity = trainEditFlags.capacity
		}
		if f.Changed("frequency") {
			t.Frequency = strings.ToLower(trainEditFlags.frequency)
		}
		if f.Changed("attributes") {
			t.SpecialAttributes = trainEditFlags.attributes
		}
		if err := checkTrain(t); err != nil {
			return err
		}
		if err := e.client.UpdateTrain(ctx, t.ID, t); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(e.out, "%s train %s (%s)\n",
			theme.Current().S().Success.Render("✓ Updated"), t.Name, t.ID)
		return nil
	},
}

var trainsDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a train",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.client.DeleteTrain(cmd.Context(), args[0]); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(e.out, "%s train %s\n", theme.Current().S().Success.Render("✓ Deleted"), args[0])
		return nil
	},
}

// checkTrain catches mistakes before they reach the service.
func checkTrain(t booking.Train) error {
	switch {
	case t.ID == "" || t.Name == "":
		return fmt.Errorf("--id and --name are required")
	case !slices.Contains(booking.TrainTypes, t.Type):
		return fmt.Errorf("--type must be one of %s", strings.Join(booking.TrainTypes, ", "))
	case !slices.Contains(booking.TrainFrequencies, t.Frequency):
		return fmt.Errorf("--frequency must be one of %s", strings.Join(booking.TrainFrequencies, ", "))
	case t.TotalCapacity <= 0:
		return fmt.Errorf("--capacity must be positive")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(trainsCmd)
	trainsCmd.AddCommand(trainsListCmd)
	trainsCmd.AddCommand(trainsAddCmd)
	trainsCmd.AddCommand(trainsEditCmd)
	trainsCmd.AddCommand(trainsDeleteCmd)

	f := trainsAddCmd.Flags()
	f.StringVar(&trainAddFlags.id, "id", "", "Train number, e.g. 12301 (required)")
	f.StringVar(&trainAddFlags.name, "name", "", "Train name (required)")
	f.StringVar(&trainAddFlags.kind, "type", "express", "Train type: "+strings.Join(booking.TrainTypes, ", "))
	f.IntVar(&trainAddFlags.capacity, "capacity", 0, "Total seats")
	f.StringVar(&trainAddFlags.frequency, "frequency", "daily", "Frequency: "+strings.Join(booking.TrainFrequencies, ", "))
	f.StringVar(&trainAddFlags.attributes, "attributes", "", "Special attributes, free text")

	ef := trainsEditCmd.Flags()
	ef.StringVar(&trainEditFlags.name, "name", "", "Train name")
	ef.StringVar(&trainEditFlags.kind, "type", "", "Train type: "+strings.Join(booking.TrainTypes, ", "))
	ef.IntVar(&trainEditFlags.capacity, "capacity", 0, "Total seats")
	ef.StringVar(&trainEditFlags.frequency, "frequency", "", "Frequency: "+strings.Join(booking.TrainFrequencies, ", "))
	ef.StringVar(&trainEditFlags.attributes, "attributes", "", "Special attributes, free text")
}
