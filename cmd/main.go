package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/40acres/fossad/api"
	"github.com/40acres/fossad/completion"
	"github.com/40acres/fossad/crypto"
	"github.com/40acres/fossad/daemon"
	"github.com/40acres/fossad/database"
	"github.com/40acres/fossad/database/models"
	"github.com/40acres/fossad/destination"
	"github.com/40acres/fossad/lightning"
	"github.com/40acres/fossad/lightning/lnd"
	"github.com/40acres/fossad/lnurl"
	"github.com/40acres/fossad/rates"
	"github.com/40acres/fossad/swaps"
	"github.com/google/uuid"

	_ "github.com/40acres/fossad/logging"
	_ "github.com/lib/pq"
)

func validatePort(port int64) (uint32, error) {
	if port < 0 || port > 65535 {
		return 0, fmt.Errorf("port number %d is invalid: must be between 0 and 65535", port)
	}

	return uint32(port), nil
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-sigChan
		log.Info("Received signal, shutting down")
		cancel()

		// Wait for the daemon to shutdown
	}()

	app := &cli.Command{
		Name:  "fossad",
		Usage: "A CLI for the fossad ATM payout daemon",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "db-host",
				Usage: "Database host",
				Value: "embedded",
			},
			&cli.StringFlag{
				Name:  "db-user",
				Usage: "Database username",
				Value: "myuser",
			},
			&cli.StringFlag{
				Name:  "db-password",
				Usage: "Database password",
				Value: "mypassword",
			},
			&cli.StringFlag{
				Name:  "db-name",
				Usage: "Database name",
				Value: "postgres",
			},
			&cli.IntFlag{
				Name:  "db-port",
				Usage: "Database port",
				Value: 5433,
			},
			&cli.StringFlag{
				Name:  "db-data-path",
				Usage: "Database path",
				Value: "./.data",
			},
			&cli.BoolFlag{
				Name:  "db-keep-alive",
				Usage: "Keep the database running after the daemon stops for embedded databases",
				Value: false,
			},
			&httpPort,
			&testnet,
			&regtest,
		},
		Commands: []*cli.Command{
			{
				Name:  "start",
				Usage: "Start the fossad daemon",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "public-url",
						Usage: "Base URL wallets use to reach this daemon",
						Value: "http://localhost:8080",
					},
					&cli.StringFlag{
						Name:  "lnd-endpoint",
						Usage: "LND grpc endpoint",
						Value: "localhost:10009",
					},
					&cli.StringFlag{
						Name:  "lnd-macaroon",
						Usage: "Path to the LND admin macaroon",
					},
					&cli.StringFlag{
						Name:  "lnd-tls-cert",
						Usage: "Path to the LND TLS certificate",
					},
					&cli.StringFlag{
						Name:  "swap-endpoint",
						Usage: "Reverse swap service endpoint",
						Value: swaps.BaseURL,
					},
					&cli.StringFlag{
						Name:  "rate-endpoint",
						Usage: "Exchange rate service endpoint",
						Value: rates.BaseURL,
					},
					&cli.StringFlag{
						Name:  "wallet-id",
						Usage: "Wallet identifier the swap service settles to",
					},
					&cli.DurationFlag{
						Name:  "token-ttl",
						Usage: "How long a payout token stays redeemable",
						Value: daemon.DefaultTokenTTL,
					},
					&cli.DurationFlag{
						Name:  "completion-timeout",
						Usage: "How long a chain payout may await settlement",
						Value: daemon.DefaultCompletionTimeout,
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					httpPort, err := validatePort(c.Int("http-port"))
					if err != nil {
						return err
					}

					db, closeDb, err := StartDatabase(c)
					if err != nil {
						return fmt.Errorf("❌ Could not connect to database: %w", err)
					}
					defer func() {
						if err := closeDb(); err != nil {
							log.Errorf("❌ Could not close database: %v", err)
						}
					}()

					if c.String("db-host") == "embedded" {
						dbErr := db.MigrateDatabase()
						if dbErr != nil {
							return dbErr
						}
					} else {
						log.Info("🔍 Skipping database migration")
					}

					network := networkFromFlags(c)

					lndOpts := []lnd.Option{
						lnd.WithLndEndpoint(c.String("lnd-endpoint")),
						lnd.WithNetwork(network),
					}
					if c.String("lnd-macaroon") != "" {
						lndOpts = append(lndOpts, lnd.WithMacaroonFilePath(c.String("lnd-macaroon")))
					}
					if c.String("lnd-tls-cert") != "" {
						lndOpts = append(lndOpts, lnd.WithTLSCertFilePath(c.String("lnd-tls-cert")))
					}
					lndClient, err := lnd.NewClient(ctx, lndOpts...)
					if err != nil {
						return fmt.Errorf("❌ Could not connect to LND: %w", err)
					}
					defer lndClient.CloseConnection()

					sessions := daemon.NewSessionStore()
					hub := completion.NewHub()
					swapClient := swaps.New(swaps.WithURL(c.String("swap-endpoint")))
					rateSource := rates.New(rates.WithURL(c.String("rate-endpoint")))

					dispatcher := daemon.NewDispatcher(
						db,
						db,
						sessions,
						hub,
						destination.NewResolver(lightning.ToChainCfgNetwork(network)),
						lndClient,
						lnurl.NewClient(),
						swapClient,
						rateSource,
						c.String("wallet-id"),
						c.Duration("token-ttl"),
					)

					server := api.NewServer(httpPort, c.String("public-url"), db, db, dispatcher, sessions, hub)
					monitor := daemon.NewSessionMonitor(sessions, db, hub, swapClient, c.Duration("completion-timeout"))

					return daemon.Start(ctx, server, monitor)
				},
			},
			{
				Name:  "device",
				Usage: "ATM device operations",
				Commands: []*cli.Command{
					{
						Name:  "create",
						Usage: "Register a new ATM device",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:     "title",
								Usage:    "Human readable device name",
								Required: true,
							},
							&cli.StringFlag{
								Name:     "wallet-id",
								Usage:    "Wallet the device pays out from",
								Required: true,
							},
							&cli.StringFlag{
								Name:  "currency",
								Usage: "Fiat currency the device prices in, or sat",
								Value: "sat",
							},
							&cli.FloatFlag{
								Name:  "profit-margin",
								Usage: "Operator margin percent deducted from payouts",
								Value: 0,
							},
							&cli.StringSliceFlag{
								Name:  "rail",
								Usage: "Enabled payout rail, repeatable (lnurl, lightning, onchain, liquid)",
								Value: []string{"lnurl", "lightning"},
							},
						},
						Action: func(ctx context.Context, cmd *cli.Command) error {
							db, closeDb, err := StartDatabase(cmd)
							if err != nil {
								return fmt.Errorf("❌ Could not connect to database: %w", err)
							}
							defer func() {
								if err := closeDb(); err != nil {
									log.Errorf("❌ Could not close database: %v", err)
								}
							}()

							for _, rail := range cmd.StringSlice("rail") {
								if !models.Rail(rail).IsValid() {
									return fmt.Errorf("invalid rail: %s", rail)
								}
							}

							secret, err := crypto.GenerateTokenSecret()
							if err != nil {
								return err
							}

							device := &models.Device{
								ID:                  uuid.NewString(),
								Title:               cmd.String("title"),
								WalletID:            cmd.String("wallet-id"),
								Currency:            cmd.String("currency"),
								ProfitMarginPercent: cmd.Float("profit-margin"),
								EnabledRails:        cmd.StringSlice("rail"),
								TokenSecret:         secret,
							}
							if err := db.SaveDevice(ctx, device); err != nil {
								return err
							}

							fmt.Printf("device id: %s\ntoken secret: %s\n", device.ID, device.TokenSecret)

							return nil
						},
					},
					{
						Name:  "list",
						Usage: "List registered ATM devices",
						Action: func(ctx context.Context, cmd *cli.Command) error {
							db, closeDb, err := StartDatabase(cmd)
							if err != nil {
								return fmt.Errorf("❌ Could not connect to database: %w", err)
							}
							defer func() {
								if err := closeDb(); err != nil {
									log.Errorf("❌ Could not close database: %v", err)
								}
							}()

							devices, err := db.ListDevices(ctx)
							if err != nil {
								return err
							}
							for _, d := range devices {
								fmt.Printf("%s\t%s\t%s\t%v\n", d.ID, d.Title, d.Currency, []string(d.EnabledRails))
							}

							return nil
						},
					},
					{
						Name:  "delete",
						Usage: "Delete an ATM device",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:     "id",
								Usage:    "Device id",
								Required: true,
							},
						},
						Action: func(ctx context.Context, cmd *cli.Command) error {
							db, closeDb, err := StartDatabase(cmd)
							if err != nil {
								return fmt.Errorf("❌ Could not connect to database: %w", err)
							}
							defer func() {
								if err := closeDb(); err != nil {
									log.Errorf("❌ Could not close database: %v", err)
								}
							}()

							return db.DeleteDevice(ctx, cmd.String("id"))
						},
					},
				},
			},
			{
				Name:  "database",
				Usage: "Database operations",
				Commands: []*cli.Command{
					{
						Name:  "migrate",
						Usage: "Migrate the database",
						Action: func(ctx context.Context, cmd *cli.Command) error {
							db, closeDb, err := StartDatabase(cmd)
							if err != nil {
								return fmt.Errorf("❌ Could not connect to database: %w", err)
							}
							defer func() {
								if err := closeDb(); err != nil {
									log.Errorf("❌ Could not close database: %v", err)
								}
							}()

							return db.MigrateDatabase()
						},
					},
					{
						Name:  "reset",
						Usage: "Reset the database",
						Action: func(ctx context.Context, cmd *cli.Command) error {
							db, closeDb, err := StartDatabase(cmd)
							if err != nil {
								return fmt.Errorf("❌ Could not connect to database: %w", err)
							}
							defer func() {
								if err := closeDb(); err != nil {
									log.Errorf("❌ Could not close database: %v", err)
								}
							}()

							return db.Reset()
						},
					},
				},
			},
			{
				Name:  "help",
				Usage: "Show help",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if err := cli.ShowAppHelp(cmd); err != nil {
						return err
					}

					return nil
				},
			},
		},
	}

	app_err := app.Run(ctx, os.Args)
	if app_err != nil {
		log.Fatal(app_err)
	}
}

var regtest = cli.BoolFlag{
	Name:  "regtest",
	Usage: "Use regtest network",
}
var testnet = cli.BoolFlag{
	Name:  "testnet",
	Usage: "Use testnet network",
}

var httpPort = cli.IntFlag{
	Name:  "http-port",
	Usage: "HTTP port for ATM and wallet to daemon communication",
	Value: 8080,
}

func networkFromFlags(c *cli.Command) lightning.Network {
	network := lightning.Mainnet
	if c.Bool("regtest") {
		network = lightning.Regtest
	} else if c.Bool("testnet") {
		network = lightning.Testnet
	}

	return network
}

func StartDatabase(cmd *cli.Command) (*database.Database, func() error, error) {
	port, err := validatePort(cmd.Int("db-port"))
	if err != nil {
		return nil, nil, err
	}

	db, closeDb, err := database.NewDatabase(
		cmd.String("db-user"),
		cmd.String("db-password"),
		cmd.String("db-name"),
		port,
		cmd.String("db-data-path"),
		cmd.String("db-host"),
		cmd.Bool("db-keep-alive"),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("❌ Could not connect to database: %w", err)
	}

	return db, closeDb, nil
}
