package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/bituzin/stacks-boost-app/internal/clarity"
	"github.com/bituzin/stacks-boost-app/internal/helpers"
	"github.com/bituzin/stacks-boost-app/internal/wallet"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	NetworkMainnet = "mainnet"
	NetworkTestnet = "testnet"

	mainnetAPI = "https://api.hiro.so"
	testnetAPI = "https://api.testnet.hiro.so"

	explorerBase = "https://explorer.hiro.so/txid/"

	// AppName and AppIcon identify the application to wallets
	AppName = "StacksLend"
	AppIcon = "/favicon.ico"
	// RelayDescription is shown by relay wallets on the pairing prompt
	RelayDescription = "Stacks Boost Lending"
)

// Config is the engine configuration, sourced from the environment
type Config struct {
	Stage    string `envconfig:"STAGE" default:"local"`
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`
	AppURL   string `envconfig:"APP_URL" default:"http://localhost:8080"`

	Network         string `envconfig:"STACKS_NETWORK" default:"mainnet"`
	APIURL          string `envconfig:"STACKS_API_URL"`
	ContractAddress string `envconfig:"STACKS_CONTRACT_ADDRESS" default:"SP1K2XGT5RNGT42N49BH936VDF8NXWNZJY15BPV4F"`
	ContractName    string `envconfig:"STACKS_CONTRACT_NAME" default:"stackslend-v4"`

	SBTCTokenAddress string `envconfig:"SBTC_TOKEN_ADDRESS"`
	SBTCTokenName    string `envconfig:"SBTC_TOKEN_NAME" default:"sbtc-deposit-dummy-v2"`
	SBTCAssetName    string `envconfig:"SBTC_ASSET_NAME" default:"sbtc"`

	OracleAddress string `envconfig:"ORACLE_ADDRESS"`
	OracleName    string `envconfig:"ORACLE_NAME" default:"mock-oracle-v4"`

	WalletConnectProjectID string `envconfig:"WALLETCONNECT_PROJECT_ID"`
	WalletConnectRelayURL  string `envconfig:"WALLETCONNECT_RELAY_URL" default:"wss://relay.walletconnect.com"`
	ExtensionBridgeURL     string `envconfig:"EXTENSION_BRIDGE_URL" default:"http://127.0.0.1:3999"`

	ChainRequestsPerSecond float64       `envconfig:"CHAIN_REQUESTS_PER_SECOND" default:"5"`
	ChainRequestBurst      int           `envconfig:"CHAIN_REQUEST_BURST" default:"5"`
	ChainTimeout           time.Duration `envconfig:"CHAIN_TIMEOUT" default:"15s"`
	ChainMaxRetries        int           `envconfig:"CHAIN_MAX_RETRIES" default:"3"`

	JournalPath string `envconfig:"JOURNAL_PATH" default:"stacksboost.db"`

	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

// LoadDotEnv loads variables from .env style files into the process
// environment. Without arguments it reads ./.env.
func LoadDotEnv(files ...string) error {
	return godotenv.Load(files...)
}

// Load decodes the environment into a Config and fills derived defaults
func Load() (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() error {
	if !helpers.IsValidStage(c.Stage) {
		return fmt.Errorf("invalid STAGE %q", c.Stage)
	}

	if strings.EqualFold(strings.TrimSpace(c.Network), NetworkMainnet) {
		c.Network = NetworkMainnet
	} else {
		c.Network = NetworkTestnet
	}

	if c.APIURL == "" {
		c.APIURL = mainnetAPI
		if !c.IsMainnet() {
			c.APIURL = testnetAPI
		}
	}
	c.APIURL = strings.TrimRight(c.APIURL, "/")

	if _, _, err := clarity.ParseAddress(c.ContractAddress); err != nil {
		return fmt.Errorf("invalid STACKS_CONTRACT_ADDRESS: %w", err)
	}
	if c.ContractName == "" {
		return fmt.Errorf("STACKS_CONTRACT_NAME is required")
	}
	if c.SBTCTokenAddress == "" {
		c.SBTCTokenAddress = c.ContractAddress
	}
	if c.OracleAddress == "" {
		c.OracleAddress = c.ContractAddress
	}
	c.WalletConnectProjectID = strings.TrimSpace(c.WalletConnectProjectID)

	for i, origin := range c.CORSAllowedOrigins {
		c.CORSAllowedOrigins[i] = strings.TrimSpace(origin)
	}
	return nil
}

// IsMainnet reports whether the configured network is mainnet
func (c *Config) IsMainnet() bool {
	return c.Network == NetworkMainnet
}

// APIBaseURL is the indexer and node API root
func (c *Config) APIBaseURL() string {
	return c.APIURL
}

// ContractID is the lending contract's fully qualified identifier
func (c *Config) ContractID() string {
	return c.ContractAddress + "." + c.ContractName
}

// SBTCAssetID is the fungible token key used in balance responses
func (c *Config) SBTCAssetID() string {
	return c.SBTCTokenAddress + "." + c.SBTCTokenName + "::" + c.SBTCAssetName
}

func (c *Config) OracleID() string {
	return c.OracleAddress + "." + c.OracleName
}

// ExplorerTxURL links a transaction in the Hiro explorer
func (c *Config) ExplorerTxURL(txID string) string {
	return explorerBase + txID + "?chain=" + c.Network
}

// ChainID is the CAIP-2 chain id used by relay sessions
func (c *Config) ChainID() string {
	return "stacks:" + c.Network
}

// AppDetails identifies the application to wallets
func (c *Config) AppDetails() wallet.AppDetails {
	return wallet.AppDetails{Name: AppName, Icon: AppIcon}
}

// JournalEnabled reports whether submissions should be journaled
func (c *Config) JournalEnabled() bool {
	return c.JournalPath != ""
}
