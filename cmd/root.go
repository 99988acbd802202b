// Package cmd implements the webook command line client.
package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/webook-dev/webook-client/pkg/api"
	"github.com/webook-dev/webook-client/pkg/client"
	"github.com/webook-dev/webook-client/pkg/config"
	"github.com/webook-dev/webook-client/pkg/logger"
	"github.com/webook-dev/webook-client/pkg/notification"
	"github.com/webook-dev/webook-client/pkg/session"
	"github.com/webook-dev/webook-client/pkg/storage"
)

// annotationConfigOptional marks commands that run when --config does not exist yet
const annotationConfigOptional = "webook/config-optional"

var (
	cfgFile string
	noColor bool

	// current is built by the root PersistentPreRunE for the running command
	current *app
)

// app is what every command needs to talk to the backend
type app struct {
	conf    *config.Config
	client  *client.Client
	service *api.Service
	out     io.Writer
}

var RootCmd = &cobra.Command{
	Use:   "webook",
	Short: "webook command line client",
	Long: `Command line client for the webook publishing platform.

Credentials are kept in the state directory and refreshed transparently.
Configuration is read from $HOME/.webook/config.yaml, WEBOOK_* environment
variables and the flags below, in increasing order of precedence.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	flags := RootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default $HOME/.webook/config.yaml)")
	flags.String("api-base", "", "API base URL (default <origin>/api)")
	flags.String("origin", "", "origin the API is served from")
	flags.Duration("timeout", 0, "request timeout")
	flags.String("state-dir", "", "directory holding the stored credentials")
	flags.String("store", "", "credential store: disk or memory")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("log-format", "", "log format: text or json")
	flags.String("log-output", "", "log output: stderr, stdout or a file path")
	flags.BoolVar(&noColor, "no-color", false, "disable colored notifications")

	RootCmd.AddCommand(loginCmd)
	RootCmd.AddCommand(signupCmd)
	RootCmd.AddCommand(logoutCmd)
	RootCmd.AddCommand(whoamiCmd)
	RootCmd.AddCommand(refreshCmd)
	RootCmd.AddCommand(ArticlesCmd)
	RootCmd.AddCommand(CommentsCmd)
	RootCmd.AddCommand(FollowCmd)
	RootCmd.AddCommand(rankingCmd)
	RootCmd.AddCommand(searchCmd)
	RootCmd.AddCommand(NotificationsCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	v := viper.New()
	if err := config.BindFlags(v, cmd.Flags()); err != nil {
		return err
	}
	file := cfgFile
	if _, err := os.Stat(file); err != nil && cmd.Annotations[annotationConfigOptional] != "" {
		file = ""
	}
	conf, err := config.Load(v, file)
	if err != nil {
		return err
	}
	if err := logger.Setup(conf.Logger()); err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}

	store, err := storage.NewStore(conf.StoreConfig())
	if err != nil {
		return fmt.Errorf("failed to open credential store: %w", err)
	}
	sess, err := session.NewManager(store)
	if err != nil {
		return fmt.Errorf("failed to restore session: %w", err)
	}

	c := client.NewClient(conf.Client(), sess,
		client.WithNotifier(notification.NewConsole(cmd.ErrOrStderr(), noColor)),
		client.WithNavigator(loginHint(cmd.ErrOrStderr())),
		client.WithLogger(logger.Standard().WithField("component", "client")),
	)
	current = &app{
		conf:    conf,
		client:  c,
		service: api.New(c),
		out:     cmd.OutOrStdout(),
	}
	return nil
}

// loginHint tells the user how to get a new session
func loginHint(w io.Writer) client.Navigator {
	return client.NavigatorFunc(func(returnPath string) {
		_, _ = fmt.Fprintf(w, "Run `webook login` to sign in again (interrupted: %s)\n", returnPath)
	})
}

// Execute runs the root command. API failures were already shown to the user
// as notifications, so only the remaining errors are printed.
func Execute(stderr io.Writer) error {
	err := RootCmd.Execute()
	if err != nil && !notified(err) {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return err
}

func notified(err error) bool {
	var apiErr *client.Error
	return errors.As(err, &apiErr) && apiErr.Kind != client.KindDecode
}
