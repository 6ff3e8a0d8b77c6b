package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"gnotes/internal/auth"
)

func newUserCmd(a *app) *cobra.Command {
	user := &cobra.Command{
		Use:   "user",
		Short: "Manage users in the auth file",
	}
	user.AddCommand(&cobra.Command{
		Use:   "add <username>",
		Short: "Add a user or change their password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			if err := auth.ValidUsername(name); err != nil {
				return err
			}
			path := a.cfg.AuthFilePath()
			exists, err := auth.UserExists(path, name)
			if err != nil {
				return err
			}
			if exists {
				ok, err := promptYesNo(cmd.ErrOrStderr(), fmt.Sprintf("User %q exists. Update password? [y/N]: ", name))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.ErrOrStderr(), "no changes made")
					return nil
				}
			}
			hash, err := readNewPassword(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if err := auth.UpsertFile(path, name, hash); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "updated %s\n", path)
			return nil
		},
	})
	user.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List users in the auth file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := auth.LoadFile(a.cfg.AuthFilePath())
			if errors.Is(err, fs.ErrNotExist) {
				users = nil
			} else if err != nil {
				return err
			}
			if len(users) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no users")
				return nil
			}
			names := make([]string, 0, len(users))
			for name := range users {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	})
	var yes bool
	remove := &cobra.Command{
		Use:   "remove <username>",
		Short: "Remove a user from the auth file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			path := a.cfg.AuthFilePath()
			if !yes {
				ok, err := promptYesNo(cmd.ErrOrStderr(), fmt.Sprintf("Remove user %q? [y/N]: ", name))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.ErrOrStderr(), "no changes made")
					return nil
				}
			}
			removed, err := auth.RemoveFromFile(path, name)
			if err != nil {
				return err
			}
			if !removed {
				fmt.Fprintf(cmd.ErrOrStderr(), "user %q not found\n", name)
				return nil
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "updated %s\n", path)
			return nil
		},
	}
	remove.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	user.AddCommand(remove)
	return user
}

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password",
		Short: "Print an argon2id hash for an auth file line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := readNewPassword(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func readNewPassword(prompt io.Writer) (string, error) {
	password, err := promptPassword(prompt, "Password: ")
	if err != nil {
		return "", err
	}
	if password == "" {
		return "", auth.ErrEmptyPassword
	}
	confirm, err := promptPassword(prompt, "Confirm: ")
	if err != nil {
		return "", err
	}
	if password != confirm {
		return "", errors.New("passwords do not match")
	}
	return auth.HashPassword(password)
}

func promptPassword(w io.Writer, prompt string) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", errors.New("stdin is not a terminal")
	}
	fmt.Fprint(w, prompt)
	pass, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(string(pass)), nil
}

func promptYesNo(w io.Writer, prompt string) (bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false, errors.New("stdin is not a terminal")
	}
	fmt.Fprint(w, prompt)
	answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("read response: %w", err)
	}
	answer = strings.TrimSpace(strings.ToLower(answer))
	return answer == "y" || answer == "yes", nil
}
