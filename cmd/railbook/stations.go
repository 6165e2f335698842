package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/railbook/railbook/internal/booking"
	"github.com/railbook/railbook/internal/tui/theme"
	"github.com/spf13/cobra"
)

var stationsCmd = &cobra.Command{
	Use:   "stations",
	Short: "List, add, edit and delete stations",
}

var stationAddFlags struct {
	code       string
	name       string
	platforms  int
	facilities string
	latitude   float64
	longitude  float64
}

var stationEditFlags struct {
	name       string
	platforms  int
	facilities string
	latitude   float64
	longitude  float64
}

var stationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		stations, err := e.client.ListStations(cmd.Context())
		if err != nil {
			return err
		}
		if len(stations) == 0 {
			_, _ = fmt.Fprintln(e.out, "No stations.")
			return nil
		}

		rows := make([][]string, 0, len(stations))
		for _, st := range stations {
			rows = append(rows, []string{st.Code, st.Name, strconv.Itoa(st.TotalPlatforms), st.Facilities})
		}
		_, _ = fmt.Fprintln(e.out, renderTable([]string{"Code", "Name", "Platforms", "Facilities"}, rows))
		return nil
	},
}

var stationsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a station",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if stationAddFlags.code == "" || stationAddFlags.name == "" {
			return fmt.Errorf("--code and --name are required")
		}

		e, err := newEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		st := booking.Station{
			Code:           stationAddFlags.code,
			Name:           stationAddFlags.name,
			TotalPlatforms: stationAddFlags.platforms,
			Facilities:     stationAddFlags.facilities,
		}
		if cmd.Flags().Changed("lat") {
			st.Latitude = &stationAddFlags.latitude
		}
		if cmd.Flags().Changed("lon") {
			st.Longitude = &stationAddFlags.longitude
		}
		if err := e.client.CreateStation(cmd.Context(), st); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(e.out, "%s station %s (%s)\n",
			theme.Current().S().Success.Render("✓ Added"), st.Name, st.Code)
		return nil
	},
}

var stationsEditCmd = &cobra.Command{
	Use:   "edit <code>",
	Short: "Change a station; only the flags given are updated",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()
		stations, err := e.client.ListStations(ctx)
		if err != nil {
			return err
		}
		st, ok := booking.ReferenceData{Stations: stations}.Station(args[0])
		if !ok {
			return fmt.Errorf("station %s not found", args[0])
		}

		f := cmd.Flags()
		if f.Changed("name") {
			st.Name = stationEditFlags.name
		}
		if f.Changed("platforms") {
			st.TotalPlatforms = stationEditFlags.platforms
		}
		if f.Changed("facilities") {
			st.Facilities = stationEditFlags.facilities
		}
		if f.Changed("lat") {
			st.Latitude = &stationEditFlags.latitude
		}
		if f.Changed("lon") {
			st.Longitude = &stationEditFlags.longitude
		}
		if err := e.client.UpdateStation(ctx, st.Code, st); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(e.out, "%s station %s (%s)\n",
			theme.Current().S().Success.Render("✓ Updated"), st.Name, st.Code)
		return nil
	},
}

var stationsDeleteCmd = &cobra.Command{
	Use:     "delete <code>",
	Aliases: []string{"rm"},
	Short:   "Delete a station",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		code := strings.ToUpper(args[0])
		if err := e.client.DeleteStation(cmd.Context(), code); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(e.out, "%s station %s\n", theme.Current().S().Success.Render("✓ Deleted"), code)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stationsCmd)
	stationsCmd.AddCommand(stationsListCmd)
	stationsCmd.AddCommand(stationsAddCmd)
	stationsCmd.AddCommand(stationsEditCmd)
	stationsCmd.AddCommand(stationsDeleteCmd)

	f := stationsAddCmd.Flags()
	f.StringVar(&stationAddFlags.code, "code", "", "Station code, e.g. MUM (required)")
	f.StringVar(&stationAddFlags.name, "name", "", "Station name (required)")
	f.IntVar(&stationAddFlags.platforms, "platforms", 1, "Number of platforms")
	f.StringVar(&stationAddFlags.facilities, "facilities", "", "Facilities, free text")
	f.Float64Var(&stationAddFlags.latitude, "lat", 0, "Latitude")
	f.Float64Var(&stationAddFlags.longitude, "lon", 0, "Longitude")

	ef := stationsEditCmd.Flags()
	ef.StringVar(&stationEditFlags.name, "name", "", "Station name")
	ef.IntVar(&stationEditFlags.platforms, "platforms", 0, "Number of platforms")
	ef.StringVar(&stationEditFlags.facilities, "facilities", "", "Facilities, free text")
	ef.Float64Var(&stationEditFlags.latitude, "lat", 0, "Latitude")
	ef.Float64Var(&stationEditFlags.longitude, "lon", 0, "Longitude")
}
