package main

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/simolima/sportlink-demo-sub001/internal/search"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search athletes and professionals",
}

var searchAthletesCmd = &cobra.Command{
	Use:   "athletes [term]",
	Short: "Search player profiles",
	Long: `Search player profiles by name, city and sport.

Examples:
  sprinta search athletes "rossi"
  sprinta search athletes --sport Calcio --city Brescia --verified`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSearch(cmd, "/search/athletes", args)
	},
}

var searchProfessionalsCmd = &cobra.Command{
	Use:   "professionals [term]",
	Short: "Search coaches, agents, scouts and staff",
	Long: `Search every non-player profile.

Examples:
  sprinta search professionals --role coach
  sprinta search professionals "bianchi" --country Italia`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSearch(cmd, "/search/professionals", args)
	},
}

func init() {
	searchCmd.AddCommand(searchAthletesCmd)
	searchCmd.AddCommand(searchProfessionalsCmd)

	for _, c := range []*cobra.Command{searchAthletesCmd, searchProfessionalsCmd} {
		c.Flags().String("city", "", "City filter")
		c.Flags().String("country", "", "Country filter")
		c.Flags().String("sport", "", "Sport filter")
		c.Flags().Bool("verified", false, "Only verified profiles")
		c.Flags().IntP("limit", "l", 20, "Maximum number of results")
		c.Flags().IntP("offset", "o", 0, "Result offset for pagination")
	}
	searchProfessionalsCmd.Flags().String("role", "", "Professional role, e.g. coach or agent")
}

func runSearch(cmd *cobra.Command, path string, args []string) error {
	q := url.Values{}
	if len(args) == 1 {
		q.Set("searchTerm", args[0])
	}
	for _, name := range []string{"city", "country", "sport"} {
		if v, _ := cmd.Flags().GetString(name); v != "" {
			q.Set(name, v)
		}
	}
	if cmd.Flags().Lookup("role") != nil {
		if role, _ := cmd.Flags().GetString("role"); role != "" {
			q.Set("roleType", role)
		}
	}
	if verified, _ := cmd.Flags().GetBool("verified"); verified {
		q.Set("verified", "true")
	}
	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))

	var res search.Result
	raw, err := call(cmd.Context(), http.MethodGet, path, q, nil, &res)
	if err != nil {
		return err
	}
	if output == "json" {
		printJSON(raw)
		return nil
	}

	if len(res.Data) == 0 {
		fmt.Println("No profiles found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tROLE\tCITY\tSPORTS\tVERIFIED")
	for _, u := range res.Data {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%t\n", u.ID, u.FullName(), u.Role, u.City, strings.Join(u.Sports, ","), u.Verified)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d of %d", len(res.Data), res.Total)
	if res.HasMore {
		fmt.Printf(" (more with --offset %d)", res.Offset+len(res.Data))
	}
	fmt.Println()
	return nil
}
