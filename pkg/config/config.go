package config

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"k8s.io/apimachinery/pkg/util/validation/field"
)

// Environment variable names for relay server configuration
const (
	EnvRelayPort              = "RELAY_PORT"
	EnvRelayPersistenceType   = "RELAY_PERSISTENCE_TYPE"
	EnvRelayBadgerPath        = "RELAY_BADGER_PATH"
	EnvRelayRedisAddress      = "RELAY_REDIS_ADDRESS"
	EnvRelayRedisPassword     = "RELAY_REDIS_PASSWORD"
	EnvRelayRedisDB           = "RELAY_REDIS_DB"
	EnvRelayLedgerMode        = "RELAY_LEDGER_MODE"
	EnvRelayRPCURL            = "RELAY_RPC_URL"
	EnvRelayChainID           = "RELAY_CHAIN_ID"
	EnvRelayTokenAddress      = "RELAY_TOKEN_ADDRESS"
	EnvRelayExecutorKey       = "RELAY_EXECUTOR_PRIVATE_KEY"
	EnvRelaySubmissionsPerSec = "RELAY_SUBMISSIONS_PER_SECOND"
	EnvRelayVerbose           = "RELAY_VERBOSE"
)

// PersistenceType selects the executed-set store backend
type PersistenceType string

const (
	PersistenceTypeMemory PersistenceType = "memory"
	PersistenceTypeBadger PersistenceType = "badger"
	PersistenceTypeRedis  PersistenceType = "redis"
)

// LedgerMode selects the ledger backend
type LedgerMode string

const (
	// LedgerModeMemory runs an in-process ledger. Local development only.
	LedgerModeMemory LedgerMode = "memory"
	// LedgerModeERC20 executes against an on-chain ERC-20 token over RPC.
	LedgerModeERC20 LedgerMode = "erc20"
)

// RelayConfig is the full relay server configuration
type RelayConfig struct {
	Port            int
	PersistenceType PersistenceType
	BadgerPath      string
	RedisAddress    string
	RedisPassword   string
	RedisDB         int

	LedgerMode   LedgerMode
	RPCURL       string
	ChainID      uint64
	TokenAddress string
	ExecutorKey  string

	SubmissionsPerSecond float64
	Verbose              bool
}

func (c *RelayConfig) Validate() error {
	var allErrors field.ErrorList

	if c.Port <= 0 || c.Port > 65535 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("port"), c.Port, "port must be in (0, 65535]"))
	}

	switch c.PersistenceType {
	case PersistenceTypeMemory:
	case PersistenceTypeBadger:
		if c.BadgerPath == "" {
			allErrors = append(allErrors, field.Required(field.NewPath("badgerPath"), "badgerPath is required for badger persistence"))
		}
	case PersistenceTypeRedis:
		if c.RedisAddress == "" {
			allErrors = append(allErrors, field.Required(field.NewPath("redisAddress"), "redisAddress is required for redis persistence"))
		}
	default:
		allErrors = append(allErrors, field.NotSupported(field.NewPath("persistenceType"), c.PersistenceType,
			[]string{string(PersistenceTypeMemory), string(PersistenceTypeBadger), string(PersistenceTypeRedis)}))
	}

	switch c.LedgerMode {
	case LedgerModeMemory:
	case LedgerModeERC20:
		if c.RPCURL == "" {
			allErrors = append(allErrors, field.Required(field.NewPath("rpcUrl"), "rpcUrl is required for erc20 ledger mode"))
		}
		if c.ChainID == 0 {
			allErrors = append(allErrors, field.Required(field.NewPath("chainId"), "chainId is required for erc20 ledger mode"))
		}
		if !common.IsHexAddress(c.TokenAddress) {
			allErrors = append(allErrors, field.Invalid(field.NewPath("tokenAddress"), c.TokenAddress, "tokenAddress must be a hex address"))
		}
		if c.ExecutorKey == "" {
			allErrors = append(allErrors, field.Required(field.NewPath("executorKey"), "executorKey is required for erc20 ledger mode"))
		}
	default:
		allErrors = append(allErrors, field.NotSupported(field.NewPath("ledgerMode"), c.LedgerMode,
			[]string{string(LedgerModeMemory), string(LedgerModeERC20)}))
	}

	if c.SubmissionsPerSecond < 0 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("submissionsPerSecond"), c.SubmissionsPerSecond, "must be >= 0"))
	}

	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}

// GetSupportedPersistenceTypesString returns backend names for CLI help
func GetSupportedPersistenceTypesString() string {
	return fmt.Sprintf("%s, %s, %s", PersistenceTypeMemory, PersistenceTypeBadger, PersistenceTypeRedis)
}
