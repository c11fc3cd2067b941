package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yeisme/filevault/pkg/client"
	"github.com/yeisme/filevault/pkg/internal/types"
)

// clientViper resolves the client flags, also readable as
// FILEVAULT_CLIENT_SERVER, FILEVAULT_CLIENT_USERNAME and
// FILEVAULT_CLIENT_PASSWORD.
var clientViper = viper.New()

var (
	clientCmd = &cobra.Command{
		Use:   "client",
		Short: "talk to a running filevault server",
	}

	clientUploadCmd = &cobra.Command{
		Use:   "upload <file>...",
		Short: "upload files one after another",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loggedInClient(cmd.Context())
			if err != nil {
				return err
			}

			out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
			var failed atomic.Int32

			q := client.NewUploadQueue(cmd.Context(), c, client.QueueOptions{})

			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					fmt.Fprintf(errOut, "%s: %v\n", path, err)
					failed.Add(1)

					continue
				}

				name := filepath.Base(path)
				task := client.UploadTask{
					Name: name,
					Data: data,
					OnProgress: func(p int) {
						fmt.Fprintf(errOut, "\r%-40s %3d%%", name, p)
					},
					OnDone: func(r client.Result) {
						fmt.Fprintln(errOut)

						if r.Err != nil {
							failed.Add(1)
							fmt.Fprintf(errOut, "%s: %s\n", name, client.Describe(r.Err))

							return
						}

						fmt.Fprintf(out, "%s\t%s\n", r.File.FileID, r.File.FileName)
					},
				}

				if err := q.Enqueue(cmd.Context(), task); err != nil {
					q.Close()
					return err
				}
			}

			q.Close()

			if n := failed.Load(); n > 0 {
				return fmt.Errorf("%d of %d uploads failed", n, len(args))
			}

			return nil
		},
	}

	clientListCmd = &cobra.Command{
		Use:     "list",
		Short:   "list your files",
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := loggedInClient(cmd.Context())
			if err != nil {
				return err
			}

			files, err := c.List(cmd.Context())
			if err != nil {
				return describe(err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tTYPE\tSIZE\tUPLOADED")

			for _, f := range files {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", f.ID, f.OriginalName, f.MimeType, f.Size, f.UploadedAt)
			}

			return w.Flush()
		},
	}

	clientGetCmd = &cobra.Command{
		Use:   "get <id>",
		Short: "download a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loggedInClient(cmd.Context())
			if err != nil {
				return err
			}

			output, _ := cmd.Flags().GetString("output")

			dir := "."
			if output != "" {
				dir = filepath.Dir(output)
			}

			tmp, err := os.CreateTemp(dir, ".filevault-*")
			if err != nil {
				return err
			}
			defer os.Remove(tmp.Name())

			name, err := c.Download(cmd.Context(), args[0], tmp)
			if closeErr := tmp.Close(); err == nil {
				err = closeErr
			}

			if err != nil {
				return describe(err)
			}

			if output == "" {
				output = filepath.Join(dir, filepath.Base(name))
			}

			if err := os.Rename(tmp.Name(), output); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), output)

			return nil
		},
	}

	clientRemoveCmd = &cobra.Command{
		Use:     "rm <id>",
		Short:   "delete a file",
		Aliases: []string{"delete"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loggedInClient(cmd.Context())
			if err != nil {
				return err
			}

			if err := c.Delete(cmd.Context(), args[0]); err != nil {
				return describe(err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "deleted", args[0])

			return nil
		},
	}

	clientSignupCmd = &cobra.Command{
		Use:   "signup",
		Short: "create an account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := client.New(clientViper.GetString("server"))
			if err != nil {
				return err
			}

			fullName, _ := cmd.Flags().GetString("full-name")
			gender, _ := cmd.Flags().GetString("gender")
			password := clientViper.GetString("password")

			user, err := c.Signup(cmd.Context(), types.SignupRequest{
				FullName:        fullName,
				Username:        clientViper.GetString("username"),
				Password:        password,
				ConfirmPassword: password,
				Gender:          gender,
			})
			if err != nil {
				return describe(err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "created", user.Username)

			return nil
		},
	}

	clientHealthCmd = &cobra.Command{
		Use:   "health",
		Short: "show the server health",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := client.New(clientViper.GetString("server"))
			if err != nil {
				return err
			}

			h, err := c.Health(cmd.Context())

			for _, comp := range []struct {
				name, status, err string
			}{
				{"db", h.DB.Status, h.DB.Error},
				{"blob", h.Blob.Status, h.Blob.Error},
				{"kv", h.KV.Status, h.KV.Error},
				{"mq", h.MQ.Status, h.MQ.Error},
			} {
				if comp.status == "" {
					continue
				}

				fmt.Fprintf(cmd.OutOrStdout(), "%-5s %s %s\n", comp.name, comp.status, comp.err)
			}

			if err != nil {
				return describe(err)
			}

			return nil
		},
	}
)

func describe(err error) error {
	return fmt.Errorf("%s", client.Describe(err))
}

func loggedInClient(ctx context.Context) (*client.Client, error) {
	c, err := client.New(clientViper.GetString("server"))
	if err != nil {
		return nil, err
	}

	username := strings.TrimSpace(clientViper.GetString("username"))
	if username == "" {
		return nil, fmt.Errorf("--username is required")
	}

	if _, err := c.Login(ctx, username, clientViper.GetString("password")); err != nil {
		return nil, describe(err)
	}

	return c, nil
}

func registerClientCommands() {
	flags := clientCmd.PersistentFlags()
	flags.String("server", "http://localhost:8080", "server base url")
	flags.String("username", "", "account name")
	flags.String("password", "", "account password")

	_ = clientViper.BindPFlags(flags)
	clientViper.SetEnvPrefix("FILEVAULT_CLIENT")
	clientViper.AutomaticEnv()

	clientSignupCmd.Flags().String("full-name", "", "display name")
	clientSignupCmd.Flags().String("gender", "", "male or female")
	clientGetCmd.Flags().StringP("output", "o", "", "output file, defaults to the original name")

	clientCmd.AddCommand(clientSignupCmd, clientUploadCmd, clientListCmd, clientGetCmd, clientRemoveCmd, clientHealthCmd)
	rootCmd.AddCommand(clientCmd)
}
