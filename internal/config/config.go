// Copyright © 2022 Kaleido, Inc.
//
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/DixusSlim/spi-client-windows/internal/i18n"
	"github.com/DixusSlim/spi-client-windows/internal/log"
	"github.com/docker/go-units"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

var spic = AddRootKey

// The following keys can be access from the root configuration.
// Plugins are responsible for defining their own keys using the Prefix interface
var (
	// Lang is the language to use for translation
	Lang = spic("lang")
	// LogForceColor forces color to be enabled, even if we do not detect a TTY
	LogForceColor = spic("log.forceColor")
	// LogLevel is the logging level
	LogLevel = spic("log.level")
	// LogNoColor forces color to be disabled, even if we detect a TTY
	LogNoColor = spic("log.noColor")
	// LogTimeFormat is a string format for timestamps
	LogTimeFormat = spic("log.timeFormat")
	// LogUTC sets log timestamps to the UTC timezone
	LogUTC = spic("log.utc")
	// LogFilename sets logging to file
	LogFilename = spic("log.filename")
	// LogFilesize sets the size to roll logs at
	LogFilesize = spic("log.filesize")
	// LogMaxBackups sets the maximum number of old files to keep
	LogMaxBackups = spic("log.maxBackups")
	// LogMaxAge sets the maximum age at which to roll
	LogMaxAge = spic("log.maxAge")
	// LogCompress sets whether to compress backups
	LogCompress = spic("log.compress")

	// SPIPosID is the POS identifier presented to the terminal (max 16 alphanumeric characters)
	SPIPosID = spic("spi.posId")
	// SPISerialNumber is the terminal serial number, used for device address resolution
	SPISerialNumber = spic("spi.serialNumber")
	// SPIEftposAddress is the terminal address, as an IPv4 address with optional port
	SPIEftposAddress = spic("spi.eftposAddress")
	// SPIDeviceAPIKey is the API key for the device address and analytics services
	SPIDeviceAPIKey = spic("spi.deviceApiKey")
	// SPITenantCode is the acquirer tenant code
	SPITenantCode = spic("spi.tenantCode")
	// SPIPosVendorID identifies the POS vendor to the terminal
	SPIPosVendorID = spic("spi.posVendorId")
	// SPIPosVersion identifies the POS software version to the terminal
	SPIPosVersion = spic("spi.posVersion")
	// SPIAutoAddressResolution enables looking up the terminal address from its serial number
	SPIAutoAddressResolution = spic("spi.autoAddressResolution")
	// SPITestMode points the device address and analytics services at the sandbox endpoints
	SPITestMode = spic("spi.testMode")
	// SPIPingPongTimeout is how long to wait for a pong before counting it as missed
	SPIPingPongTimeout = spic("spi.ping.pongTimeout")
	// SPIPingFrequency is the interval between pings on a healthy connection
	SPIPingFrequency = spic("spi.ping.frequency")
	// SPIPingMissedPongsToDisconnect is the number of consecutive missed pongs that drops the connection
	SPIPingMissedPongsToDisconnect = spic("spi.ping.missedPongsToDisconnect")
	// SPITxMonitorCheckFrequency is the tick of the transaction monitor
	SPITxMonitorCheckFrequency = spic("spi.tx.monitorCheckFrequency")
	// SPITxCheckOnTxFrequency is the silence after which the transaction monitor asks the terminal for the transaction
	SPITxCheckOnTxFrequency = spic("spi.tx.checkOnTxFrequency")
	// SPITxMaxWaitForCancel is how long to wait for a cancel result before declaring the outcome unknown
	SPITxMaxWaitForCancel = spic("spi.tx.maxWaitForCancel")
	// SPIReconnectSleep is the backoff before reconnecting after a disconnect
	SPIReconnectSleep = spic("spi.reconnect.sleepBeforeReconnect")
	// SPIReconnectRetriesBeforeResolving is the number of failed reconnects before re-resolving the terminal address
	SPIReconnectRetriesBeforeResolving = spic("spi.reconnect.retriesBeforeResolvingDeviceAddress")
	// SPIReconnectRetriesBeforePairing is the number of failed reconnects tolerated while pairing
	SPIReconnectRetriesBeforePairing = spic("spi.reconnect.retriesBeforePairing")
	// SPIEventsQueueLength is the per-subscriber event buffer
	SPIEventsQueueLength = spic("spi.events.queueLength")
	// SPIEventsBlockedWarnInterval rate limits the warning when a subscriber is dropping events
	SPIEventsBlockedWarnInterval = spic("spi.events.blockedWarnInterval")
	// SPIReceiptPromptForCustomerCopy asks the terminal to offer a customer copy
	SPIReceiptPromptForCustomerCopy = spic("spi.receipt.promptForCustomerCopyOnEftpos")
	// SPIReceiptSignatureFlowOnEftpos prints signature receipts on the terminal
	SPIReceiptSignatureFlowOnEftpos = spic("spi.receipt.signatureFlowOnEftpos")
	// SPIReceiptPrintMerchantCopy prints the merchant copy on the terminal
	SPIReceiptPrintMerchantCopy = spic("spi.receipt.printMerchantCopy")

	// MetricsEnabled enables the prometheus metrics
	MetricsEnabled = spic("metrics.enabled")
	// MetricsAddress is the listener address of the metrics endpoint
	MetricsAddress = spic("metrics.address")
	// MetricsPort is the listener port of the metrics endpoint
	MetricsPort = spic("metrics.port")
	// MetricsPath is the path of the metrics endpoint
	MetricsPath = spic("metrics.path")

	// CLISecretsFile is where the host CLI keeps the pairing secrets
	CLISecretsFile = spic("cli.secretsFile")
	// CLIReadyTimeout is how long the host CLI waits for the terminal to become ready
	CLIReadyTimeout = spic("cli.readyTimeout")
	// CLITxTimeout is how long the host CLI waits for a transaction to finish
	CLITxTimeout = spic("cli.txTimeout")
)

type KeySet interface {
	AddKnownKey(key string, defValue ...interface{})
}

// Prefix represents the global configuration, at a nested point in
// the config hierarchy. Note that all values are GLOBAL so this cannot
// be used for per-instance customization.
type Prefix interface {
	KeySet
	SetDefault(key string, defValue interface{})
	SubPrefix(suffix string) Prefix
	Set(key string, value interface{})
	Resolve(key string) string

	GetString(key string) string
	GetBool(key string) bool
	GetInt(key string) int
	GetInt64(key string) int64
	GetByteSize(key string) int64
	GetUint(key string) uint
	GetDuration(key string) time.Duration
	GetStringSlice(key string) []string
	GetStringMap(key string) map[string]interface{}
	Get(key string) interface{}
}

// RootKey key are the known configuration keys
type RootKey string

// Reset clears viper and re-applies the root defaults
func Reset() {
	keysMutex.Lock()
	defer keysMutex.Unlock()

	viper.Reset()

	viper.SetDefault(string(Lang), "en")
	viper.SetDefault(string(LogLevel), "info")
	viper.SetDefault(string(LogTimeFormat), "2006-01-02T15:04:05.000Z07:00")
	viper.SetDefault(string(LogUTC), false)
	viper.SetDefault(string(LogFilesize), "100m")
	viper.SetDefault(string(LogMaxAge), "24h")
	viper.SetDefault(string(LogMaxBackups), 2)
	viper.SetDefault(string(SPIAutoAddressResolution), false)
	viper.SetDefault(string(SPITestMode), false)
	viper.SetDefault(string(SPIPingPongTimeout), "5s")
	viper.SetDefault(string(SPIPingFrequency), "18s")
	viper.SetDefault(string(SPIPingMissedPongsToDisconnect), 2)
	viper.SetDefault(string(SPITxMonitorCheckFrequency), "1s")
	viper.SetDefault(string(SPITxCheckOnTxFrequency), "20s")
	viper.SetDefault(string(SPITxMaxWaitForCancel), "10s")
	viper.SetDefault(string(SPIReconnectSleep), "3s")
	viper.SetDefault(string(SPIReconnectRetriesBeforeResolving), 3)
	viper.SetDefault(string(SPIReconnectRetriesBeforePairing), 3)
	viper.SetDefault(string(SPIEventsQueueLength), 50)
	viper.SetDefault(string(SPIEventsBlockedWarnInterval), "1m")
	viper.SetDefault(string(SPIReceiptPromptForCustomerCopy), false)
	viper.SetDefault(string(SPIReceiptSignatureFlowOnEftpos), false)
	viper.SetDefault(string(SPIReceiptPrintMerchantCopy), false)
	viper.SetDefault(string(MetricsEnabled), false)
	viper.SetDefault(string(MetricsAddress), "127.0.0.1")
	viper.SetDefault(string(MetricsPort), 6000)
	viper.SetDefault(string(MetricsPath), "/metrics")
	viper.SetDefault(string(CLISecretsFile), "spi-secrets.yaml")
	viper.SetDefault(string(CLIReadyTimeout), "2m")
	viper.SetDefault(string(CLITxTimeout), "5m")

	i18n.SetLang(viper.GetString(string(Lang)))
}

func init() {
	Reset()
}

// ReadConfig initializes the config
func ReadConfig(cfgFile string) error {
	keysMutex.Lock()
	defer keysMutex.Unlock()

	// Set precedence order for reading config location
	viper.SetEnvPrefix("spi")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	viper.SetConfigType("yaml")
	if cfgFile != "" {
		f, err := os.Open(cfgFile)
		if err == nil {
			defer f.Close()
			err = viper.ReadConfig(f)
		}
		return err
	}
	viper.SetConfigName("spi")
	viper.AddConfigPath("/etc/spi/")
	viper.AddConfigPath("$HOME/.spi")
	viper.AddConfigPath(".")
	return viper.ReadInConfig()
}

var knownKeys = map[string]bool{} // All keys go here, including those defined in sub prefixies
var keysMutex sync.Mutex
var root = &configPrefix{}

// AddRootKey adds a root key, used to define the keys that are used within the core
func AddRootKey(k string) RootKey {
	root.AddKnownKey(k)
	return RootKey(k)
}

// GetKnownKeys gets the known keys
func GetKnownKeys() []string {
	keysMutex.Lock()
	defer keysMutex.Unlock()

	keys := make([]string, 0, len(knownKeys))
	for k := range knownKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// configPrefix is the main config structure passed to plugins, and used for root to wrap viper
type configPrefix struct {
	prefix string
}

// NewPluginConfig creates a new plugin configuration object, at the specified prefix
func NewPluginConfig(prefix string) Prefix {
	if !strings.HasSuffix(prefix, ".") {
		prefix += "."
	}
	return &configPrefix{
		prefix: prefix,
	}
}

func (c *configPrefix) prefixKey(k string) string {
	// Caller responsible for holding lock when calling
	key := c.prefix + k
	if !knownKeys[key] {
		panic(fmt.Sprintf("Undefined configuration key '%s'", key))
	}
	return key
}

func (c *configPrefix) SubPrefix(suffix string) Prefix {
	return &configPrefix{
		prefix: c.prefix + suffix + ".",
	}
}

func (c *configPrefix) AddKnownKey(k string, defValue ...interface{}) {
	key := c.prefix + k
	if len(defValue) == 1 {
		c.SetDefault(k, defValue[0])
	} else if len(defValue) > 0 {
		c.SetDefault(k, defValue)
	}
	keysMutex.Lock()
	defer keysMutex.Unlock()
	knownKeys[key] = true
}

func (c *configPrefix) SetDefault(k string, defValue interface{}) {
	key := c.prefix + k
	viper.SetDefault(key, defValue)
}

// GetString gets a configuration string
func GetString(key RootKey) string {
	return root.GetString(string(key))
}
func (c *configPrefix) GetString(key string) string {
	keysMutex.Lock()
	defer keysMutex.Unlock()

	return viper.GetString(c.prefixKey(key))
}

// GetStringSlice gets a configuration string array
func GetStringSlice(key RootKey) []string {
	return root.GetStringSlice(string(key))
}
func (c *configPrefix) GetStringSlice(key string) []string {
	keysMutex.Lock()
	defer keysMutex.Unlock()

	return viper.GetStringSlice(c.prefixKey(key))
}

// GetStringMap gets a configuration map
func GetStringMap(key RootKey) map[string]interface{} {
	return root.GetStringMap(string(key))
}
func (c *configPrefix) GetStringMap(key string) map[string]interface{} {
	keysMutex.Lock()
	defer keysMutex.Unlock()

	return viper.GetStringMap(c.prefixKey(key))
}

// GetBool gets a configuration bool
func GetBool(key RootKey) bool {
	return root.GetBool(string(key))
}
func (c *configPrefix) GetBool(key string) bool {
	keysMutex.Lock()
	defer keysMutex.Unlock()

	return viper.GetBool(c.prefixKey(key))
}

// GetDuration gets a configuration time duration with consistent semantics
func GetDuration(key RootKey) time.Duration {
	return root.GetDuration(string(key))
}
func (c *configPrefix) GetDuration(key string) time.Duration {
	keysMutex.Lock()
	defer keysMutex.Unlock()

	return ParseToDuration(viper.GetString(c.prefixKey(key)))
}

// GetByteSize get a size in bytes
func GetByteSize(key RootKey) int64 {
	return root.GetByteSize(string(key))
}
func (c *configPrefix) GetByteSize(key string) int64 {
	keysMutex.Lock()
	defer keysMutex.Unlock()

	return ParseToByteSize(viper.GetString(c.prefixKey(key)))
}

// GetUint gets a configuration uint
func GetUint(key RootKey) uint {
	return root.GetUint(string(key))
}
func (c *configPrefix) GetUint(key string) uint {
	keysMutex.Lock()
	defer keysMutex.Unlock()

	return viper.GetUint(c.prefixKey(key))
}

// GetInt gets a configuration int
func GetInt(key RootKey) int {
	return root.GetInt(string(key))
}
func (c *configPrefix) GetInt(key string) int {
	keysMutex.Lock()
	defer keysMutex.Unlock()

	return viper.GetInt(c.prefixKey(key))
}

// GetInt64 gets a configuration int64
func GetInt64(key RootKey) int64 {
	return root.GetInt64(string(key))
}
func (c *configPrefix) GetInt64(key string) int64 {
	keysMutex.Lock()
	defer keysMutex.Unlock()

	return viper.GetInt64(c.prefixKey(key))
}

// Get gets a configuration in raw form
func Get(key RootKey) interface{} {
	return root.Get(string(key))
}
func (c *configPrefix) Get(key string) interface{} {
	keysMutex.Lock()
	defer keysMutex.Unlock()

	return viper.Get(c.prefixKey(key))
}

// Set allows runtime setting of config (used in unit tests)
func Set(key RootKey, value interface{}) {
	root.Set(string(key), value)
}
func (c *configPrefix) Set(key string, value interface{}) {
	keysMutex.Lock()
	defer keysMutex.Unlock()

	viper.Set(c.prefixKey(key), value)
}

// Resolve gives the fully qualified path of a key
func (c *configPrefix) Resolve(key string) string {
	keysMutex.Lock()
	defer keysMutex.Unlock()

	return c.prefixKey(key)
}

// ParseToDuration is a standard handling of any duration string, in config or API options.
// A bare number is treated as milliseconds.
func ParseToDuration(durationString string) time.Duration {
	if durationString == "" {
		return time.Duration(0)
	}
	ms, err := strconv.ParseInt(durationString, 10, 64)
	if err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	d, err := time.ParseDuration(durationString)
	if err != nil {
		log.L(context.Background()).Warnf("Invalid duration '%s': %s", durationString, err)
		return time.Duration(0)
	}
	return d
}

// ParseToByteSize is a standard handling of a number of bytes, in config or API options
func ParseToByteSize(byteString string) int64 {
	if byteString == "" {
		return 0
	}
	bytes, err := units.RAMInBytes(byteString)
	if err != nil {
		log.L(context.Background()).Warnf("Invalid byte size '%s': %s", byteString, err)
		return 0
	}
	return bytes
}

// SetupLogging initializes logging
func SetupLogging(ctx context.Context) {
	log.SetFormatting(log.Formatting{
		DisableColor:    GetBool(LogNoColor),
		ForceColor:      GetBool(LogForceColor),
		TimestampFormat: GetString(LogTimeFormat),
		UTC:             GetBool(LogUTC),
	})
	logFilename := GetString(LogFilename)
	if logFilename != "" {
		lumberjack := &lumberjack.Logger{
			Filename:   logFilename,
			MaxSize:    int(math.Ceil(float64(GetByteSize(LogFilesize)) / 1024 / 1024)), /* round up in megabytes */
			MaxBackups: GetInt(LogMaxBackups),
			MaxAge:     int(math.Ceil(float64(GetDuration(LogMaxAge)) / float64(time.Hour) / 24)), /* round up in days */
			Compress:   GetBool(LogCompress),
		}
		logrus.SetOutput(lumberjack)
	}
	log.SetLevel(GetString(LogLevel))
	log.L(ctx).Debugf("Log level: %s", logrus.GetLevel())
}
