package config

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/gagliardetto/solana-go"
	"github.com/go-yaml/yaml"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/totegamma/craft-nft/internal/domain"
)

const (
	DefaultListen         = ":5000"
	DefaultDatabaseURL    = ":memory:"
	DefaultRPCURL         = "https://api.devnet.solana.com"
	DefaultCommitment     = "finalized"
	DefaultLedgerTimeout  = 10 * time.Second
	DefaultDecimals       = 9
	DefaultIPFSAPI        = "localhost:5001"
	DefaultGateway        = "https://ipfs.io/ipfs"
	DefaultContentTimeout = 30 * time.Second
	DefaultSMTPHost       = "smtp.gmail.com"
	DefaultSMTPPort       = 465
	DefaultMailTimeout    = 15 * time.Second
)

type Config struct {
	Server  Server  `yaml:"server"`
	Ledger  Ledger  `yaml:"ledger"`
	Payment Payment `yaml:"payment"`
	Content Content `yaml:"content"`
	Mail    Mail    `yaml:"mail"`
}

type Server struct {
	Listen        string `yaml:"listen" env:"CRAFTNFT_LISTEN"`
	DatabaseURL   string `yaml:"databaseURL" env:"DATABASE_URL"`
	RedisAddr     string `yaml:"redisAddr" env:"REDIS_ADDR"`
	RedisPassword string `yaml:"redisPassword" env:"REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redisDB" env:"REDIS_DB"`
	MemcachedAddr string `yaml:"memcachedAddr" env:"MEMCACHED_ADDR"`
	EnableTrace   bool   `yaml:"enableTrace" env:"CRAFTNFT_ENABLE_TRACE"`
	TraceEndpoint string `yaml:"traceEndpoint" env:"CRAFTNFT_TRACE_ENDPOINT"`
	LogLevel      string `yaml:"logLevel" env:"CRAFTNFT_LOG_LEVEL"`
}

type Ledger struct {
	RPCURL     string        `yaml:"rpcURL" env:"SOLANA_RPC_URL"`
	Commitment string        `yaml:"commitment" env:"SOLANA_COMMITMENT"`
	Timeout    time.Duration `yaml:"timeout"`
}

type Payment struct {
	TokenMint     string                `yaml:"tokenMint" env:"CRAFT_TOKEN_MINT_ADDRESS"`
	Decimals      *uint8                `yaml:"decimals" env:"CRAFT_TOKEN_DECIMALS"`
	Price         string                `yaml:"price" env:"CRAFT_NFT_PRICE"`
	TokenProgram  string                `yaml:"tokenProgram"`
	Layout        *domain.AccountLayout `yaml:"layout"`
	CheckedLayout *domain.AccountLayout `yaml:"checkedLayout"`
	PublicKey     string                `yaml:"adminPublicKey" env:"ADMIN_WALLET_PUBLIC_KEY"`
	PrivateKey    string                `yaml:"adminPrivateKey" env:"ADMIN_WALLET_PRIVATE_KEY"`
}

type Content struct {
	APIURL     string        `yaml:"apiURL" env:"IPFS_API_URL"`
	GatewayURL string        `yaml:"gatewayURL" env:"IPFS_GATEWAY_URL"`
	Timeout    time.Duration `yaml:"timeout"`
}

type Mail struct {
	Address  string        `yaml:"address" env:"EMAIL_ADDRESS"`
	Password string        `yaml:"password" env:"EMAIL_PASSWORD"`
	SMTPHost string        `yaml:"smtpHost" env:"SMTP_HOST"`
	SMTPPort int           `yaml:"smtpPort" env:"SMTP_PORT"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Load reads the optional YAML file at path, applies environment overrides
// and fills in defaults. An empty path skips the file.
func Load(path string) (Config, error) {
	var config Config

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return Config{}, err
		}
		defer file.Close()

		err = yaml.NewDecoder(file).Decode(&config)
		if err != nil {
			return Config{}, errors.Wrap(err, "failed to decode config file")
		}
	}

	err := env.Parse(&config)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to parse environment")
	}

	config.setDefaults()
	return config, nil
}

func (c *Config) setDefaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = DefaultListen
	}
	if c.Server.DatabaseURL == "" {
		c.Server.DatabaseURL = DefaultDatabaseURL
	}
	if c.Ledger.RPCURL == "" {
		c.Ledger.RPCURL = DefaultRPCURL
	}
	if c.Ledger.Commitment == "" {
		c.Ledger.Commitment = DefaultCommitment
	}
	if c.Ledger.Timeout <= 0 {
		c.Ledger.Timeout = DefaultLedgerTimeout
	}
	if c.Payment.Decimals == nil {
		d := uint8(DefaultDecimals)
		c.Payment.Decimals = &d
	}
	if c.Payment.TokenProgram == "" {
		c.Payment.TokenProgram = domain.TokenProgramID
	}
	if c.Content.APIURL == "" {
		c.Content.APIURL = DefaultIPFSAPI
	}
	if c.Content.GatewayURL == "" {
		c.Content.GatewayURL = DefaultGateway
	}
	if c.Content.Timeout <= 0 {
		c.Content.Timeout = DefaultContentTimeout
	}
	if c.Mail.SMTPHost == "" {
		c.Mail.SMTPHost = DefaultSMTPHost
	}
	if c.Mail.SMTPPort == 0 {
		c.Mail.SMTPPort = DefaultSMTPPort
	}
	if c.Mail.Timeout <= 0 {
		c.Mail.Timeout = DefaultMailTimeout
	}
}

// Resolve turns the payment section into the runtime payment terms.
// A bad price is an error; a bad signing key is recorded in SignerErr so the
// server can still start and answer health checks.
func (p Payment) Resolve() (domain.PaymentConfig, error) {
	pc := domain.PaymentConfig{
		TokenMint:     strings.TrimSpace(p.TokenMint),
		Recipient:     strings.TrimSpace(p.PublicKey),
		TokenProgram:  p.TokenProgram,
		Price:         decimal.Zero,
		Layout:        domain.DefaultAccountLayout,
		CheckedLayout: domain.DefaultCheckedLayout,
	}
	if pc.TokenProgram == "" {
		pc.TokenProgram = domain.TokenProgramID
	}
	if p.Decimals != nil {
		pc.Decimals = *p.Decimals
	}
	if p.Layout != nil {
		pc.Layout = *p.Layout
	}
	if p.CheckedLayout != nil {
		pc.CheckedLayout = *p.CheckedLayout
	}

	if p.Price != "" {
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return domain.PaymentConfig{}, errors.Wrapf(err, "invalid price %q", p.Price)
		}
		if price.IsNegative() {
			return domain.PaymentConfig{}, fmt.Errorf("price must not be negative: %s", p.Price)
		}
		pc.Price = price
	}

	if p.PrivateKey == "" {
		pc.SignerErr = fmt.Errorf("admin private key not set")
		return pc, nil
	}

	public, err := PublicKeyOf(p.PrivateKey)
	if err != nil {
		pc.SignerErr = err
		return pc, nil
	}

	switch {
	case pc.Recipient == "":
		pc.Recipient = public
	case pc.Recipient != public:
		pc.SignerErr = fmt.Errorf("admin private key does not match public key %s", pc.Recipient)
	}

	return pc, nil
}

// PublicKeyOf parses a Solana keypair, either the CLI JSON byte array or a
// base58 string, and returns its base58 public key.
func PublicKeyOf(encoded string) (string, error) {
	encoded = strings.TrimSpace(encoded)

	var raw []byte
	if strings.HasPrefix(encoded, "[") {
		var ints []int
		err := json.Unmarshal([]byte(encoded), &ints)
		if err != nil {
			return "", errors.Wrap(err, "invalid keypair byte array")
		}
		raw = make([]byte, len(ints))
		for i, v := range ints {
			if v < 0 || v > 255 {
				return "", fmt.Errorf("invalid keypair byte at %d: %d", i, v)
			}
			raw[i] = byte(v)
		}
	} else {
		key, err := solana.PrivateKeyFromBase58(encoded)
		if err != nil {
			return "", errors.Wrap(err, "invalid base58 private key")
		}
		raw = key
	}

	if len(raw) != ed25519.PrivateKeySize {
		return "", fmt.Errorf("keypair must be %d bytes, got %d", ed25519.PrivateKeySize, len(raw))
	}

	derived := ed25519.NewKeyFromSeed(raw[:ed25519.SeedSize])
	if !derived.Public().(ed25519.PublicKey).Equal(ed25519.PublicKey(raw[ed25519.SeedSize:])) {
		return "", fmt.Errorf("keypair public half does not match its seed")
	}

	return solana.PublicKeyFromBytes(raw[ed25519.SeedSize:]).String(), nil
}
