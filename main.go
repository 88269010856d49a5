package main

import (
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/flowsmith/engine/agent"
	"github.com/flowsmith/engine/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type cfg struct {
	config.Config
}
type cli struct {
	cfg cfg
}

func setupFlags(cmd *cobra.Command) error {
	cmd.Flags().String("config-file", "", "Path to config file.")
	cmd.Flags().Int("http-port", 8080, "http port for rest endpoints")
	cmd.Flags().String("redis-addr", "localhost:6379", "comma separated list of redis host:port")
	cmd.Flags().String("namespace", "flowsmith", "namespace used in storage")
	cmd.Flags().String("storage-impl", "redis", "implementation of underline storage")
	cmd.Flags().String("bus-impl", "redis", "implementation of the event bus")
	cmd.Flags().String("default-bus", "default", "bus name used when an event or filter omits one")
	cmd.Flags().String("warehouse-driver", "mysql", "sql driver for the warehouse")
	cmd.Flags().String("warehouse-dsn", "", "dsn of the warehouse database")
	cmd.Flags().String("overlap-policy", "allow", "allow or skip overlapping runs of a flow")
	cmd.Flags().String("analytics-file", "", "file to record run outcomes, empty disables")
	cmd.Flags().Int("run-store-partitions", 16, "number of run store partitions")
	return viper.BindPFlags(cmd.Flags())
}

func (c *cli) setupConfig(cmd *cobra.Command, args []string) error {
	var err error

	configFile, err := cmd.Flags().GetString("config-file")
	if err != nil {
		return err
	}
	viper.SetConfigFile(configFile)

	if err = viper.ReadInConfig(); err != nil {
		// it's ok if config file doesn't exist
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}

	c.cfg.HttpPort = viper.GetInt("http-port")
	c.cfg.RedisConfig.Addrs = strings.Split(viper.GetString("redis-addr"), ",")
	c.cfg.RedisConfig.Namespace = viper.GetString("namespace")
	c.cfg.StorageType = config.StorageType(viper.GetString("storage-impl"))
	c.cfg.BusType = config.BusType(viper.GetString("bus-impl"))
	c.cfg.DefaultBus = viper.GetString("default-bus")
	c.cfg.WarehouseConfig.Driver = viper.GetString("warehouse-driver")
	c.cfg.WarehouseConfig.DSN = viper.GetString("warehouse-dsn")
	c.cfg.OverlapPolicy = config.OverlapPolicy(viper.GetString("overlap-policy"))
	c.cfg.AnalyticsFile = viper.GetString("analytics-file")
	c.cfg.RunStorePartitions = viper.GetInt("run-store-partitions")
	return nil
}

func (c *cli) run(cmd *cobra.Command, args []string) error {
	agent, err := agent.New(c.cfg.Config)
	if err != nil {
		panic(err)
	}
	err = agent.Start()
	if err != nil {
		panic(err)
	}
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	return agent.Shutdown()
}

func main() {
	cli := &cli{}

	cmd := &cobra.Command{
		Use:     "flowsmith",
		PreRunE: cli.setupConfig,
		RunE:    cli.run,
	}

	if err := setupFlags(cmd); err != nil {
		log.Fatal(err)
	}

	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
