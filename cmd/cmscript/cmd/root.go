package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joshburkard/MECMAdminService-sub003/internal/adminservice"
	"github.com/joshburkard/MECMAdminService-sub003/internal/discovery"
	"github.com/joshburkard/MECMAdminService-sub003/internal/history"
)

var (
	cfgFile    string
	outputJSON bool
)

var rootCmd = &cobra.Command{
	Use:   "cmscript",
	Short: "Run approved scripts on managed endpoints and track their results",
	Long: `cmscript dispatches approved, versioned scripts to managed endpoints
through the AdminService backend and consolidates the per-endpoint execution
records into a single status view.

Common workflows:

  Run a script against two devices:
    cmscript run "Get Info" --resource 16777219 --resource 16777220

  Run a script with parameters against a collection:
    cmscript run "Set Registry" --collection SMS00001 --param Key=HKLM:\SOFTWARE\Contoso --param Value=1

  Poll an operation until every client reported:
    cmscript status 12345
    cmscript status --last

Configuration:
  Set the backend endpoint and credentials via flags, environment variables
  (prefix CMSCRIPT_) or a config file:
    CMSCRIPT_SERVER   AdminService base URL
    CMSCRIPT_TOKEN    bearer token for authentication

  When no server is configured and CONSUL_HTTP_ADDR is set, the AdminService
  endpoint is discovered through Consul.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		viper.AddConfigPath(home)
		viper.SetConfigName(".cmscript")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("CMSCRIPT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// newClient builds the AdminService client from configuration, falling back
// to Consul discovery when no server address is set.
func newClient() (*adminservice.Client, error) {
	server := viper.GetString("server")
	if server == "" {
		consulAddr := os.Getenv("CONSUL_HTTP_ADDR")
		if consulAddr == "" {
			return nil, fmt.Errorf("no AdminService endpoint configured: set --server, CMSCRIPT_SERVER, or CONSUL_HTTP_ADDR for discovery")
		}
		sd, err := discovery.NewServiceDiscovery(consulAddr, viper.GetString("consul-service"))
		if err != nil {
			return nil, err
		}
		server, err = sd.DiscoverAdminService()
		if err != nil {
			return nil, fmt.Errorf("discover AdminService: %w", err)
		}
	}

	return adminservice.NewClient(server, viper.GetString("token")), nil
}

// openHistory opens the local dispatch history store.
func openHistory() (*history.Store, error) {
	path := viper.GetString("history-db")
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = os.TempDir()
		}
		path = filepath.Join(home, ".cmscript-history.db")
	}
	return history.NewStore(path)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.cmscript.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&outputJSON, "json", "j", false, "Output in JSON format")

	rootCmd.PersistentFlags().StringP("server", "s", "", "AdminService base URL")
	viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server"))

	rootCmd.PersistentFlags().StringP("token", "t", "", "Bearer token for authentication")
	viper.BindPFlag("token", rootCmd.PersistentFlags().Lookup("token"))

	rootCmd.PersistentFlags().String("history-db", "", "Path to the local dispatch history database")
	viper.BindPFlag("history-db", rootCmd.PersistentFlags().Lookup("history-db"))

	rootCmd.PersistentFlags().String("consul-service", discovery.DefaultServiceName, "Consul service name for AdminService discovery")
	viper.BindPFlag("consul-service", rootCmd.PersistentFlags().Lookup("consul-service"))
}
