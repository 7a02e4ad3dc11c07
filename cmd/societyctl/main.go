package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	apiFlag string
	rootCmd = &cobra.Command{
		Use:   "societyctl",
		Short: "CLI client for the society backend REST API",
	}
)

func main() {
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", "http://localhost:8080", "Society service base URL")

	// members subcommands
	membersCmd := &cobra.Command{Use: "members", Short: "Member directory"}
	membersListCmd := &cobra.Command{
		Use:   "list",
		Short: "List members, optionally filtered",
		RunE: func(cmd *cobra.Command, args []string) error {
			q, _ := cmd.Flags().GetString("query")
			return runMembersList(apiFlag, q, os.Stdout)
		},
	}
	membersListCmd.Flags().StringP("query", "q", "", "Substring filter on name, flat or email")
	membersCmd.AddCommand(membersListCmd)
	rootCmd.AddCommand(membersCmd)

	// receipts subcommands
	receiptsCmd := &cobra.Command{Use: "receipts", Short: "Receipt ledger"}
	receiptsListCmd := &cobra.Command{
		Use:   "list",
		Short: "List receipts, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReceiptsList(apiFlag, os.Stdout)
		},
	}
	receiptsCreateCmd := &cobra.Command{
		Use:   "create",
		Short: "Record a payment and issue a receipt",
		RunE: func(cmd *cobra.Command, args []string) error {
			memberID, _ := cmd.Flags().GetString("member")
			amount, _ := cmd.Flags().GetFloat64("amount")
			method, _ := cmd.Flags().GetString("method")
			note, _ := cmd.Flags().GetString("note")
			if memberID == "" {
				return fmt.Errorf("--member required")
			}
			return runReceiptCreate(apiFlag, memberID, amount, method, note, os.Stdout)
		},
	}
	receiptsCreateCmd.Flags().StringP("member", "m", "", "Member ID (required)")
	receiptsCreateCmd.Flags().Float64P("amount", "r", 0, "Amount in rupees (required)")
	receiptsCreateCmd.Flags().String("method", "cash", "Payment method: cash, upi, card, bank_transfer, other")
	receiptsCreateCmd.Flags().String("note", "", "Optional note; defaults per method")
	_ = receiptsCreateCmd.MarkFlagRequired("amount")
	receiptsCmd.AddCommand(receiptsListCmd, receiptsCreateCmd)
	rootCmd.AddCommand(receiptsCmd)

	// queries subcommands
	queriesCmd := &cobra.Command{Use: "queries", Short: "Member query workflow"}
	queriesListCmd := &cobra.Command{
		Use:   "list",
		Short: "List queries, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, _ := cmd.Flags().GetString("status")
			return runQueriesList(apiFlag, status, os.Stdout)
		},
	}
	queriesListCmd.Flags().StringP("status", "s", "all", "Filter: open, resolved or all")
	queriesReplyCmd := &cobra.Command{
		Use:   "reply <queryId>",
		Short: "Append an admin reply to a query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			message, _ := cmd.Flags().GetString("message")
			memberID, _ := cmd.Flags().GetString("member")
			return runQueryReply(apiFlag, args[0], memberID, message, os.Stdout)
		},
	}
	queriesReplyCmd.Flags().StringP("message", "m", "", "Reply text (required)")
	queriesReplyCmd.Flags().String("member", "", "Member ID to notify")
	_ = queriesReplyCmd.MarkFlagRequired("message")
	queriesStatusCmd := &cobra.Command{
		Use:   "status <queryId> <open|resolved>",
		Short: "Move a query between open and resolved",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueryStatus(apiFlag, args[0], args[1], os.Stdout)
		},
	}
	queriesCmd.AddCommand(queriesListCmd, queriesReplyCmd, queriesStatusCmd)
	rootCmd.AddCommand(queriesCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
