package main

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"text/tabwriter"

	"github.com/simolima/sportlink-demo-sub001/internal/affiliations"
	"github.com/simolima/sportlink-demo-sub001/internal/dto"
	"github.com/simolima/sportlink-demo-sub001/internal/models"
	"github.com/spf13/cobra"
)

var affiliationsCmd = &cobra.Command{
	Use:   "affiliations",
	Short: "Manage agent and player affiliations",
}

var listAffiliationsCmd = &cobra.Command{
	Use:   "list",
	Short: "List affiliations where you are the agent or the player",
	RunE: func(cmd *cobra.Command, args []string) error {
		asAgent, _ := cmd.Flags().GetBool("agent")
		status, _ := cmd.Flags().GetString("status")
		userID, err := requireUser()
		if err != nil {
			return err
		}

		q := url.Values{}
		if asAgent {
			q.Set("agentId", userID)
		} else {
			q.Set("playerId", userID)
		}
		if status != "" {
			q.Set("status", status)
		}

		var views []affiliations.View
		raw, err := call(cmd.Context(), http.MethodGet, "/affiliations", q, nil, &views)
		if err != nil {
			return err
		}
		if output == "json" {
			printJSON(raw)
			return nil
		}
		if len(views) == 0 {
			fmt.Println("No affiliations")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tAGENT\tPLAYER\tSTATUS\tREQUESTED")
		for _, v := range views {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", v.ID, summaryName(v.Agent), summaryName(v.Player), v.Status, v.RequestedAt.Format("2006-01-02"))
		}
		return w.Flush()
	},
}

var requestAffiliationCmd = &cobra.Command{
	Use:   "request <player-id>",
	Short: "Ask a player to be represented by you",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		agentID, err := requireUser()
		if err != nil {
			return err
		}
		notes, _ := cmd.Flags().GetString("notes")

		var aff models.Affiliation
		raw, err := call(cmd.Context(), http.MethodPost, "/affiliations", nil, dto.AffiliationRequest{
			AgentID:  agentID,
			PlayerID: args[0],
			Notes:    notes,
		}, &aff)
		if err != nil {
			return err
		}
		if output == "json" {
			printJSON(raw)
			return nil
		}
		fmt.Printf("Affiliation %s requested (%s)\n", aff.ID, aff.Status)
		return nil
	},
}

var respondAffiliationCmd = &cobra.Command{
	Use:   "respond <affiliation-id> <accepted|rejected>",
	Short: "Accept or reject a pending affiliation request",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		playerID, err := requireUser()
		if err != nil {
			return err
		}
		status := args[1]
		if status != models.AffiliationAccepted && status != models.AffiliationRejected {
			return fmt.Errorf("status must be %s or %s", models.AffiliationAccepted, models.AffiliationRejected)
		}

		var aff models.Affiliation
		raw, err := call(cmd.Context(), http.MethodPut, "/affiliations/"+url.PathEscape(args[0]), nil, dto.RespondAffiliationRequest{
			Status:   status,
			PlayerID: playerID,
		}, &aff)
		if err != nil {
			return err
		}
		if output == "json" {
			printJSON(raw)
			return nil
		}
		fmt.Printf("Affiliation %s is now %s\n", aff.ID, aff.Status)
		return nil
	},
}

func init() {
	affiliationsCmd.AddCommand(listAffiliationsCmd)
	affiliationsCmd.AddCommand(requestAffiliationCmd)
	affiliationsCmd.AddCommand(respondAffiliationCmd)

	listAffiliationsCmd.Flags().Bool("agent", false, "List as the agent instead of the player")
	listAffiliationsCmd.Flags().String("status", "", "Filter by status")
	requestAffiliationCmd.Flags().String("notes", "", "Private notes kept on the request")
}

func summaryName(s *models.UserSummary) string {
	if s == nil {
		return "-"
	}
	name := s.FirstName + " " + s.LastName
	if name == " " {
		return s.ID
	}
	return name
}
