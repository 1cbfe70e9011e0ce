package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "paycore-cli",
		Short: "PayCore operational CLI",
		Long:  `A command line interface for operating a PayCore ledger instance.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8081", "Base URL of the PayCore ops API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Request timeout")

	// Reconciliation commands
	reconcileCmd := &cobra.Command{
		Use:   "reconcile [account-id]",
		Short: "Recompute balances from the transaction log",
		Long:  `Sweeps every account, or recomputes a single account when an ID is given.`,
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) == 1 {
				post("/ops/reconcile/" + args[0])
				return
			}
			post("/ops/reconcile")
		},
	}
	rootCmd.AddCommand(reconcileCmd)

	// Account commands
	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Account operations",
	}

	accountGetCmd := &cobra.Command{
		Use:   "get <account-id>",
		Short: "Show an account",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			get("/ops/accounts/" + args[0])
		},
	}

	accountBalanceCmd := &cobra.Command{
		Use:   "balance <account-id>",
		Short: "Show an account balance snapshot",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			get("/ops/accounts/" + args[0] + "/balance")
		},
	}

	accountCmd.AddCommand(accountGetCmd)
	accountCmd.AddCommand(accountBalanceCmd)
	rootCmd.AddCommand(accountCmd)

	// Health command
	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Check service readiness",
		Run: func(cmd *cobra.Command, args []string) {
			get("/readyz")
		},
	}
	rootCmd.AddCommand(healthCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func get(path string) {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(baseURL + path)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	printResponse(resp)
}

func post(path string) {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Post(baseURL+path, "application/json", bytes.NewReader(nil))
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	printResponse(resp)
}

func printResponse(resp *http.Response) {
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		fmt.Printf("Request FAILED (Status: %d)\nResponse: %s\n", resp.StatusCode, string(body))
		os.Exit(1)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		fmt.Println(string(body))
		return
	}
	fmt.Println(pretty.String())
}
