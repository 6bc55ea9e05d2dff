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

package spi

import (
	"context"
	"sync"
	"time"

	"github.com/DixusSlim/spi-client-windows/internal/analytics"
	"github.com/DixusSlim/spi-client-windows/internal/deviceservice"
	"github.com/DixusSlim/spi-client-windows/internal/i18n"
	"github.com/DixusSlim/spi-client-windows/internal/liveness"
	"github.com/DixusSlim/spi-client-windows/internal/log"
	"github.com/DixusSlim/spi-client-windows/internal/messages"
	"github.com/DixusSlim/spi-client-windows/internal/metrics"
	"github.com/DixusSlim/spi-client-windows/internal/pairing"
	"github.com/DixusSlim/spi-client-windows/internal/spievents"
	"github.com/DixusSlim/spi-client-windows/internal/txflow"
	"github.com/DixusSlim/spi-client-windows/pkg/spitypes"
	"github.com/DixusSlim/spi-client-windows/pkg/wsclient"
	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
)

// LibraryVersion is reported to the terminal in set_pos_info, and in transaction reports
const LibraryVersion = "2.9.0"

const libraryLanguage = "go"

// Client is the POS side of an SPI session with one terminal.
//
// Every method is safe to call from any goroutine. Calls are serialized with the
// connection events and timers on a single goroutine, so a method never observes
// a half-applied state change. Changes are reported through Subscribe.
type Client interface {
	Start() error
	Stop()
	Subscribe(types ...spitypes.EventType) *spievents.Subscription
	Unsubscribe(s *spievents.Subscription)

	SetPosID(posID string) bool
	SetEftposAddress(address string) bool
	SetSerialNumber(serialNumber string) bool
	SetAutoAddressResolution(enabled bool) bool
	SetTestMode(testMode bool) bool
	SetDeviceAPIKey(apiKey string) bool
	SetTenantCode(tenantCode string) bool
	SetPosInfo(posVendorID, posVersion string)
	SetReceiptConfig(config spitypes.ReceiptConfig)
	SetPayAtTableConfig(config *spitypes.PayAtTableConfig)

	CurrentStatus() spitypes.SpiStatus
	CurrentFlow() spitypes.SpiFlow
	CurrentPairingFlowState() *spitypes.PairingFlowState
	CurrentTxFlowState() *spitypes.TransactionFlowState
	CurrentDeviceStatus() *spitypes.DeviceAddressStatus
	Secrets() *spitypes.Secrets
	Version() string

	AckFlowEndedAndBackToIdle() bool

	Pair() bool
	PairingConfirmCode()
	PairingCancel()
	Unpair() bool

	InitiatePurchaseTx(posRefID string, amountCents int64, options *spitypes.TransactionOptions) *spitypes.InitiateTxResult
	InitiatePurchaseTxV2(posRefID string, purchaseAmount, tipAmount, cashoutAmount int64, promptForCashout bool, options *spitypes.TransactionOptions, surchargeAmount int64) *spitypes.InitiateTxResult
	InitiateRefundTx(posRefID string, amountCents int64, suppressMerchantPassword bool, options *spitypes.TransactionOptions) *spitypes.InitiateTxResult
	InitiateCashoutOnlyTx(posRefID string, amountCents, surchargeAmount int64, options *spitypes.TransactionOptions) *spitypes.InitiateTxResult
	InitiateMotoPurchaseTx(posRefID string, amountCents, surchargeAmount int64, suppressMerchantPassword bool, options *spitypes.TransactionOptions) *spitypes.InitiateTxResult
	InitiateSettleTx(posRefID string, options *spitypes.TransactionOptions) *spitypes.InitiateTxResult
	InitiateSettlementEnquiry(posRefID string, options *spitypes.TransactionOptions) *spitypes.InitiateTxResult
	InitiateGetLastTx() *spitypes.InitiateTxResult
	InitiateGetTx(posRefID string) *spitypes.InitiateTxResult
	InitiateRecovery(posRefID string, txType spitypes.TransactionType) *spitypes.InitiateTxResult
	InitiateReversal(posRefID string) *spitypes.InitiateTxResult

	InitiateAccountVerifyTx(posRefID string, options *spitypes.TransactionOptions) *spitypes.InitiateTxResult
	InitiatePreauthOpenTx(posRefID string, amountCents int64, options *spitypes.TransactionOptions) *spitypes.InitiateTxResult
	InitiatePreauthTopupTx(posRefID, preauthID string, amountCents int64, options *spitypes.TransactionOptions) *spitypes.InitiateTxResult
	InitiatePreauthPartialCancellationTx(posRefID, preauthID string, amountCents int64, options *spitypes.TransactionOptions) *spitypes.InitiateTxResult
	InitiatePreauthExtendTx(posRefID, preauthID string, options *spitypes.TransactionOptions) *spitypes.InitiateTxResult
	InitiatePreauthCompletionTx(posRefID, preauthID string, amountCents, surchargeAmount int64, options *spitypes.TransactionOptions) *spitypes.InitiateTxResult
	InitiatePreauthCancelTx(posRefID, preauthID string, options *spitypes.TransactionOptions) *spitypes.InitiateTxResult

	AcceptSignature(accepted bool) *spitypes.MidTxResult
	SubmitAuthCode(authCode string) *spitypes.SubmitAuthCodeResult
	CancelTransaction() *spitypes.MidTxResult

	GetTerminalStatus()
	GetTerminalConfiguration()
	PrintReport(key, payload string)
	GetTerminalAddress(ctx context.Context) (string, error)
}

type client struct {
	ctx    context.Context
	cancel context.CancelFunc
	conf   Config

	conn            wsclient.Connection
	devices         deviceservice.Service
	analytics       analytics.Service
	metrics         metrics.Manager
	events          spievents.Manager
	clock           Clock
	stamp           *messages.Stamp
	liveness        *liveness.Monitor
	scheduler       *gocron.Scheduler
	monitorDisabled bool

	commands chan func()
	loopDone chan struct{}
	stopOnce sync.Once
	started  bool

	sessionID              string
	posID                  string
	serialNumber           string
	eftposAddress          string
	deviceAPIKey           string
	tenantCode             string
	posVendorID            string
	posVersion             string
	autoAddressResolution  bool
	testMode               bool
	receiptConfig          spitypes.ReceiptConfig
	payAtTable             *spitypes.PayAtTableConfig
	terminalModel          string
	pairUsingEftposAddress bool
	hasSetInfo             bool

	secrets      *spitypes.Secrets
	status       spitypes.SpiStatus
	flow         spitypes.SpiFlow
	pairingFlow  *pairing.Flow
	txFlow       *txflow.Flow
	deviceStatus *spitypes.DeviceAddressStatus

	pingTimer        Timer
	reconnectTimer   Timer
	reconnectRetries int
	pairingRetries   int
}

// New builds a client from the configuration, with the secrets of an earlier pairing
// or nil. The client is idle until Start, but the setters can be used straight away.
func New(ctx context.Context, conf *Config, secrets *spitypes.Secrets, opts ...Option) (Client, error) {
	c := &client{
		conf:                   conf.withDefaults(),
		sessionID:              uuid.New().String(),
		clock:                  realClock{},
		commands:               make(chan func()),
		loopDone:               make(chan struct{}),
		posID:                  conf.PosID,
		serialNumber:           conf.SerialNumber,
		eftposAddress:          conf.EftposAddress,
		deviceAPIKey:           conf.DeviceAPIKey,
		tenantCode:             conf.TenantCode,
		posVendorID:            conf.PosVendorID,
		posVersion:             conf.PosVersion,
		autoAddressResolution:  conf.AutoAddressResolution,
		testMode:               conf.TestMode,
		receiptConfig:          conf.Receipt,
		pairUsingEftposAddress: conf.SerialNumber == "",
		status:                 spitypes.SpiStatusUnpaired,
		flow:                   spitypes.SpiFlowIdle,
		deviceStatus:           &spitypes.DeviceAddressStatus{},
	}
	c.ctx, c.cancel = context.WithCancel(log.WithLogField(log.WithLogField(ctx, "role", "spi"), "session", c.sessionID))

	c.stamp = messages.NewStamp(c.posID)
	if err := c.stamp.SetSecrets(c.ctx, secrets); err != nil {
		c.cancel()
		return nil, err
	}
	c.secrets = c.stamp.Secrets()

	for _, opt := range opts {
		opt(c)
	}
	if c.conn == nil {
		c.conn = wsclient.New(c.ctx, c.conf.WS)
	}
	if c.devices == nil {
		c.devices = deviceservice.New(c.ctx, deviceAddressConfig)
	}
	if c.analytics == nil {
		c.analytics = analytics.New(c.ctx, analyticsConfig)
	}
	if c.metrics == nil {
		c.metrics = metrics.NewMetricsManager(c.ctx)
	}
	c.conn.SetAddress(c.connectionAddress())
	c.events = spievents.NewEventManager(c.ctx, c.conf.EventQueueLength, c.conf.EventBlockedWarnInterval)
	c.liveness = liveness.New(c.ctx, c.conf.PongTimeout, c.conf.PingFrequency, c.conf.MissedPongsToDisconnect)

	c.scheduler = gocron.NewScheduler(time.UTC)
	if _, err := c.scheduler.Every(c.conf.MonitorCheckFrequency).WaitForSchedule().Do(func() {
		c.post(c.monitorTick)
	}); err != nil {
		c.cancel()
		return nil, err
	}

	go c.loop()
	return c, nil
}

func (conf *Config) withDefaults() Config {
	c := *conf
	if c.PongTimeout <= 0 {
		c.PongTimeout = 5 * time.Second
	}
	if c.PingFrequency <= 0 {
		c.PingFrequency = 18 * time.Second
	}
	if c.MissedPongsToDisconnect <= 0 {
		c.MissedPongsToDisconnect = 2
	}
	if c.MonitorCheckFrequency <= 0 {
		c.MonitorCheckFrequency = time.Second
	}
	if c.CheckOnTxFrequency <= 0 {
		c.CheckOnTxFrequency = 20 * time.Second
	}
	if c.MaxWaitForCancel <= 0 {
		c.MaxWaitForCancel = 10 * time.Second
	}
	if c.SleepBeforeReconnect <= 0 {
		c.SleepBeforeReconnect = 3 * time.Second
	}
	if c.RetriesBeforeResolvingDeviceAddress <= 0 {
		c.RetriesBeforeResolvingDeviceAddress = 3
	}
	if c.RetriesBeforePairing <= 0 {
		c.RetriesBeforePairing = 3
	}
	if c.EventQueueLength <= 0 {
		c.EventQueueLength = 50
	}
	if c.EventBlockedWarnInterval <= 0 {
		c.EventBlockedWarnInterval = time.Minute
	}
	if c.WS == nil {
		c.WS = wsclient.GenerateConfigFromPrefix(spiConfig)
	}
	return c
}

func (c *client) loop() {
	defer close(c.loopDone)
	connEvents := c.conn.Events()
	for {
		select {
		case fn := <-c.commands:
			fn()
		case ev, ok := <-connEvents:
			if !ok {
				connEvents = nil
				continue
			}
			c.onConnectionEvent(ev)
		case <-c.ctx.Done():
			log.L(c.ctx).Debugf("SPI client loop exiting")
			return
		}
	}
}

// call runs fn on the loop and waits for it. False means the client was stopped and fn did not run.
func (c *client) call(fn func()) bool {
	done := make(chan struct{})
	select {
	case c.commands <- func() {
		defer close(done)
		fn()
	}:
	case <-c.loopDone:
		return false
	}
	select {
	case <-done:
		return true
	case <-c.loopDone:
		return false
	}
}

// post queues fn for the loop without waiting. Used by timers and background lookups.
func (c *client) post(fn func()) {
	select {
	case c.commands <- fn:
	case <-c.loopDone:
	}
}

func (c *client) afterFunc(d time.Duration, fn func()) Timer {
	return c.clock.AfterFunc(d, func() {
		c.post(fn)
	})
}

func (c *client) Start() (err error) {
	if !c.call(func() { err = c.start() }) {
		return i18n.NewError(c.ctx, i18n.MsgClientStopped)
	}
	return err
}

func (c *client) start() error {
	if c.started {
		return i18n.NewError(c.ctx, i18n.MsgClientAlreadyStarted)
	}
	if c.posVendorID == "" || c.posVersion == "" {
		log.L(c.ctx).Warnf("Missing POS vendor ID and version. posVendorId and posVersion are required before starting")
		return i18n.NewError(c.ctx, i18n.MsgMissingPosVendorInfo)
	}
	if !isPosIDValid(c.posID) {
		c.posID = ""
		c.stamp.PosID = ""
		log.L(c.ctx).Warnf("Invalid parameter, please correct them before pairing")
	}
	if !isEftposAddressValid(c.eftposAddress) {
		c.eftposAddress = ""
		log.L(c.ctx).Warnf("Invalid parameter, please correct them before pairing")
	}
	c.conn.SetAddress(c.connectionAddress())
	c.started = true
	if !c.monitorDisabled {
		c.scheduler.StartAsync()
	}

	c.flow = spitypes.SpiFlowIdle
	if c.secrets != nil {
		log.L(c.ctx).Infof("Starting in Paired State")
		c.setStatus(spitypes.SpiStatusPairedConnecting)
		c.conn.Connect()
	} else {
		log.L(c.ctx).Infof("Starting in Unpaired State")
		c.status = spitypes.SpiStatusUnpaired
	}
	return nil
}

// Stop cancels every timer, closes the connection and closes all subscriptions. It cannot be restarted.
func (c *client) Stop() {
	c.stopOnce.Do(func() {
		c.scheduler.Stop()
		c.call(c.teardown)
		c.cancel()
		<-c.loopDone
		c.conn.Close()
		c.events.Close()
		log.L(c.ctx).Infof("SPI client stopped")
	})
}

func (c *client) teardown() {
	c.stopTimer(&c.pingTimer)
	c.stopTimer(&c.reconnectTimer)
	c.liveness.Reset()
}

func (c *client) stopTimer(t *Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}

func (c *client) Subscribe(types ...spitypes.EventType) *spievents.Subscription {
	return c.events.Subscribe(types...)
}

func (c *client) Unsubscribe(s *spievents.Subscription) {
	c.events.Unsubscribe(s)
}

func (c *client) CurrentStatus() (status spitypes.SpiStatus) {
	c.call(func() { status = c.status })
	return status
}

func (c *client) CurrentFlow() (flow spitypes.SpiFlow) {
	c.call(func() { flow = c.flow })
	return flow
}

// CurrentPairingFlowState is nil until the first Pair
func (c *client) CurrentPairingFlowState() (state *spitypes.PairingFlowState) {
	c.call(func() {
		if c.pairingFlow != nil {
			state = c.pairingFlow.Snapshot()
		}
	})
	return state
}

// CurrentTxFlowState is nil until the first transaction
func (c *client) CurrentTxFlowState() (state *spitypes.TransactionFlowState) {
	c.call(func() {
		if c.txFlow != nil {
			state = c.txFlow.Snapshot()
		}
	})
	return state
}

func (c *client) CurrentDeviceStatus() (status *spitypes.DeviceAddressStatus) {
	c.call(func() {
		s := *c.deviceStatus
		status = &s
	})
	return status
}

func (c *client) Secrets() (secrets *spitypes.Secrets) {
	c.call(func() { secrets = copySecrets(c.secrets) })
	return secrets
}

func copySecrets(s *spitypes.Secrets) *spitypes.Secrets {
	if s == nil {
		return nil
	}
	return spitypes.NewSecrets(s.EncKey, s.HMACKey)
}

func (c *client) Version() string {
	return LibraryVersion
}

func (c *client) AckFlowEndedAndBackToIdle() (ok bool) {
	c.call(func() {
		switch c.flow {
		case spitypes.SpiFlowIdle:
			ok = true
		case spitypes.SpiFlowPairing:
			ok = c.pairingFlow.Finished()
		case spitypes.SpiFlowTransaction:
			ok = c.txFlow.Finished()
		}
		if ok {
			c.flow = spitypes.SpiFlowIdle
		}
	})
	return ok
}

func (c *client) setStatus(status spitypes.SpiStatus) {
	if c.status == status {
		return
	}
	c.status = status
	log.L(c.ctx).Infof("Status changed: %s", status)
	c.events.Dispatch(&spitypes.Event{Type: spitypes.EventTypeStatusChanged, Status: status})
}

func (c *client) emitPairing() {
	c.events.Dispatch(&spitypes.Event{
		Type:             spitypes.EventTypePairingFlowStateChanged,
		PairingFlowState: c.pairingFlow.Snapshot(),
	})
}

func (c *client) emitTxFlow() {
	c.events.Dispatch(&spitypes.Event{
		Type:        spitypes.EventTypeTxFlowStateChanged,
		TxFlowState: c.txFlow.Snapshot(),
	})
}

func (c *client) emitSecrets() {
	c.events.Dispatch(&spitypes.Event{
		Type:    spitypes.EventTypeSecretsChanged,
		Secrets: copySecrets(c.secrets),
	})
}

func (c *client) emitDeviceStatus() {
	s := *c.deviceStatus
	c.events.Dispatch(&spitypes.Event{
		Type:                spitypes.EventTypeDeviceAddressChanged,
		DeviceAddressStatus: &s,
	})
}

// send encodes and writes one message. False means it was not handed to a live connection.
func (c *client) send(m *spitypes.Message) bool {
	wire, err := c.stamp.ToJSON(c.ctx, m)
	if err != nil {
		log.L(c.ctx).Errorf("Failed to encode '%s': %s", m.EventName, err)
		return false
	}
	if !c.conn.Connected() {
		log.L(c.ctx).Debugf("Asked to send, but not connected: %s", m.DecryptedJSON)
		return false
	}
	log.L(c.ctx).Debugf("Sending: %s", m.DecryptedJSON)
	return c.conn.Send(wire)
}

func (c *client) activeTx() bool {
	return c.flow == spitypes.SpiFlowTransaction && c.txFlow != nil && !c.txFlow.Finished()
}

func (c *client) matchingTx(posRefID string) bool {
	return c.activeTx() && c.txFlow.PosRefID() == posRefID
}
