package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var flagName string

var addUserCmd = &cobra.Command{
	Use:   "adduser",
	Short: "Create an account",
	Args:  cobra.NoArgs,
	RunE:  runAddUser,
}

func init() {
	addUserCmd.Flags().StringVar(&flagName, "name", "", "display name")
	rootCmd.AddCommand(addUserCmd)
}

func runAddUser(cmd *cobra.Command, _ []string) error {
	email := userEmail()
	if email == "" {
		return errors.New("pass the new account email with --user")
	}

	password, err := readPassword("New password: ")
	if err != nil {
		return err
	}
	confirm, err := readPassword("Repeat password: ")
	if err != nil {
		return err
	}
	if password != confirm {
		return errors.New("passwords do not match")
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	u, sess, err := a.auth.SignUp(cmd.Context(), email, password, flagName)
	if err != nil {
		return err
	}
	a.session = sess.Token

	fmt.Fprintf(cmd.OutOrStdout(), "Created account %s (%s)\n", u.Email, u.ID)
	return nil
}
