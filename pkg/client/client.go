package client

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/meridianlabs/meridian-go/pkg/log"
	"github.com/meridianlabs/meridian-go/pkg/rpc"
	"github.com/meridianlabs/meridian-go/pkg/sign"
)

// firstRequestID leaves the ID range below it to the transports, which
// reserve IDs for their own traffic such as pings.
const firstRequestID = 1000

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client's logger. Defaults to a noop logger.
func WithLogger(lg log.Logger) Option {
	return func(c *Client) { c.lg = lg }
}

// WithSigner sets the signer used for transaction submission and
// authentication.
func WithSigner(s sign.Signer) Option {
	return func(c *Client) { c.signer = s }
}

// WithMetrics enables prometheus instrumentation.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithCallTimeout bounds every RPC call. Zero means no client-imposed
// bound beyond the caller's context.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Client) { c.callTimeout = d }
}

// Client is the high-level handle to a Meridian node.
type Client struct {
	transport   rpc.Transport
	lg          log.Logger
	signer      sign.Signer
	metrics     *Metrics
	callTimeout time.Duration

	registry  *Registry
	routing   RoutingState
	requestID atomic.Uint64
	validate  *validator.Validate

	authMu     sync.RWMutex
	authToken  string
	authExpiry time.Time
}

// New creates a client over the given transport. For push transports,
// Start must be called before subscribing.
func New(transport rpc.Transport, opts ...Option) *Client {
	c := &Client{
		transport: transport,
		lg:        log.NewNoopLogger(),
		registry:  NewRegistry(),
		validate:  validator.New(),
	}
	c.requestID.Store(firstRequestID - 1)
	for _, opt := range opts {
		opt(c)
	}
	c.lg = c.lg.WithName("meridian-client")
	return c
}

// Start dials push transports and launches the routing loop; onClose is
// invoked once when the connection goes down, with the causing error if
// any. For request/response transports Start is a no-op.
func (c *Client) Start(ctx context.Context, url string, onClose func(err error)) error {
	pt, ok := c.transport.(rpc.PushTransport)
	if !ok {
		return nil
	}

	err := pt.Dial(ctx, url, func(err error) {
		// Node-side subscriptions die with the connection, so the local
		// registry must not outlive it either.
		cleared := c.registry.Clear()
		c.metrics.subscriptionsDelta(-float64(cleared))
		if cleared > 0 {
			c.lg.Info("connection closed, dropped subscriptions", "count", cleared)
		}
		if onClose != nil {
			onClose(err)
		}
	})
	if err != nil {
		return err
	}

	go c.routeMessages(pt.MessageCh())
	return nil
}

// Close tears down the transport. For push transports the closure
// handler passed to Start still runs and clears the registry.
func (c *Client) Close() error {
	return c.transport.Close()
}

func (c *Client) nextRequestID() uint64 {
	return c.requestID.Add(1)
}

// call sends one request over the transport, attaching the auth token
// when one is held, and applying the configured call timeout.
func (c *Client) call(ctx context.Context, method rpc.Method, params any) (*rpc.Response, error) {
	var p rpc.Params
	if params != nil {
		var err error
		p, err = rpc.NewParams(params)
		if err != nil {
			return nil, err
		}
	}
	if token := c.currentAuthToken(); token != "" {
		if p == nil {
			p = rpc.Params{}
		}
		tokenJSON, _ := json.Marshal(token)
		p["auth_token"] = tokenJSON
	}

	if c.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.callTimeout)
		defer cancel()
	}

	req := rpc.NewRequest(c.nextRequestID(), method, p)
	res, err := c.transport.Call(ctx, &req)
	c.metrics.request(method.String(), err)
	if err != nil {
		return nil, errors.Wrapf(err, "%s call failed", method)
	}
	return res, nil
}

type subscribeParams struct {
	Query string `json:"query"`
}

type subscribeResult struct {
	SubscriptionID string `json:"subscription_id"`
}

// Subscribe registers handler for live events named eventName. For
// application events, emitter optionally narrows delivery to one
// emitter and filter narrows it further; both are applied client-side
// by the router. System event subscriptions (Tx, NewBlock,
// NewBlockHeader) deliver the node's envelopes verbatim. The returned
// ID is node-assigned and is the handle for Unsubscribe.
func (c *Client) Subscribe(ctx context.Context, eventName, emitter string, filter EventFilter, handler MessageHandler) (string, error) {
	if handler == nil {
		return "", errors.New("handler must not be nil")
	}
	if _, ok := c.transport.(rpc.PushTransport); !ok {
		return "", ErrUnsupportedOperation
	}

	query := BuildSubscribeQuery(&c.routing, eventName, filter)
	res, err := c.call(ctx, rpc.MethodSubscribe, subscribeParams{Query: query})
	if err != nil {
		return "", err
	}

	var sr subscribeResult
	if err := res.DecodeResult(&sr); err != nil {
		return "", errors.Wrap(err, "subscribe rejected")
	}

	sub := &Subscription{
		ID:      sr.SubscriptionID,
		Event:   eventName,
		Emitter: emitter,
		Query:   query,
		handler: handler,
	}
	if err := c.registry.Register(sub); err != nil {
		return "", err
	}
	c.metrics.subscriptionsDelta(1)
	c.lg.Info("subscribed", "event", eventName, "subscription", sub.ID)
	return sub.ID, nil
}

// Unsubscribe cancels the subscription with the given ID. An unknown ID
// fails with ErrNotSubscribed before any node contact. The local entry
// is removed only after the node acknowledges, so messages arriving in
// the meantime are still delivered.
func (c *Client) Unsubscribe(ctx context.Context, id string) error {
	if _, ok := c.transport.(rpc.PushTransport); !ok {
		return ErrUnsupportedOperation
	}

	sub, ok := c.registry.Lookup(id)
	if !ok {
		return ErrNotSubscribed
	}

	// The node identifies subscriptions by query content, not by ID.
	res, err := c.call(ctx, rpc.MethodUnsubscribe, subscribeParams{Query: sub.Query})
	if err != nil {
		return err
	}
	if err := res.Err(); err != nil {
		return errors.Wrap(err, "unsubscribe rejected")
	}

	if _, err := c.registry.Remove(id); err != nil {
		return err
	}
	c.metrics.subscriptionsDelta(-1)
	c.lg.Info("unsubscribed", "subscription", id)
	return nil
}

// Block is a summarized ledger block.
type Block struct {
	Height   int64     `json:"height"`
	Hash     string    `json:"hash"`
	Proposer string    `json:"proposer"`
	Time     time.Time `json:"time"`
	TxHashes []string  `json:"tx_hashes,omitempty"`
}

// GetBlock fetches the block at the given height.
func (c *Client) GetBlock(ctx context.Context, height int64) (*Block, error) {
	res, err := c.call(ctx, rpc.MethodGetBlock, map[string]any{"height": height})
	if err != nil {
		return nil, err
	}
	var block Block
	if err := res.DecodeResult(&block); err != nil {
		return nil, err
	}
	return &block, nil
}

// Transaction is a committed transaction with its event log decoded.
type Transaction struct {
	TxResult
	Events []Event `json:"-"`
}

// GetTransaction fetches a committed transaction by hash.
func (c *Client) GetTransaction(ctx context.Context, txHash string) (*Transaction, error) {
	res, err := c.call(ctx, rpc.MethodGetTransaction, map[string]any{"tx_hash": txHash})
	if err != nil {
		return nil, err
	}
	var txr TxResult
	if err := res.DecodeResult(&txr); err != nil {
		return nil, err
	}
	events, err := DecodeEventData(res.Result)
	if err != nil {
		return nil, err
	}
	return &Transaction{TxResult: txr, Events: events}, nil
}

type balanceResult struct {
	Amount decimal.Decimal `json:"amount"`
	Denom  string          `json:"denom"`
}

// GetBalance fetches the balance of address in the given denomination.
func (c *Client) GetBalance(ctx context.Context, address, denom string) (decimal.Decimal, error) {
	res, err := c.call(ctx, rpc.MethodGetBalance, map[string]any{
		"address": address,
		"denom":   denom,
	})
	if err != nil {
		return decimal.Zero, err
	}
	var out balanceResult
	if err := res.DecodeResult(&out); err != nil {
		return decimal.Zero, err
	}
	return out.Amount, nil
}

type searchResult struct {
	Txs []json.RawMessage `json:"txs"`
}

// SearchEvents runs a historical event query and returns the matching
// events across all hit transactions. Transactions whose event log
// cannot be decoded are logged and skipped. Works over either transport.
func (c *Client) SearchEvents(ctx context.Context, eventName, emitter string, filter EventFilter) ([]Event, error) {
	query := BuildSearchQuery(eventName, emitter, filter)
	res, err := c.call(ctx, rpc.MethodSearchEvents, map[string]any{"query": query})
	if err != nil {
		return nil, err
	}
	var sr searchResult
	if err := res.DecodeResult(&sr); err != nil {
		return nil, err
	}

	var matched []Event
	for _, tx := range sr.Txs {
		events, err := DecodeEventData(tx)
		if err != nil {
			c.lg.Warn("skipping undecodable search hit", "query", query, "error", err)
			continue
		}
		for _, ev := range events {
			if ev.Name != eventName {
				continue
			}
			if emitter != "" && ev.Emitter != emitter {
				continue
			}
			matched = append(matched, ev)
		}
	}
	return matched, nil
}

// QueryContract invokes a read-only contract method and returns its raw
// result.
func (c *Client) QueryContract(ctx context.Context, contract, method string, args map[string]any) (json.RawMessage, error) {
	res, err := c.call(ctx, rpc.MethodQueryContract, map[string]any{
		"contract": contract,
		"method":   method,
		"args":     args,
	})
	if err != nil {
		return nil, err
	}
	if err := res.Err(); err != nil {
		return nil, err
	}
	return res.Result, nil
}

// TransferRequest describes a value transfer to sign and broadcast.
type TransferRequest struct {
	To     string          `json:"to" validate:"required"`
	Denom  string          `json:"denom" validate:"required"`
	Amount decimal.Decimal `json:"amount" validate:"required"`
	Memo   string          `json:"memo,omitempty" validate:"max=256"`
}

// rawTransfer is the canonical form that gets signed and broadcast. The
// nonce makes every encoding unique so a captured payload cannot be
// replayed.
type rawTransfer struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Denom  string          `json:"denom"`
	Amount decimal.Decimal `json:"amount"`
	Memo   string          `json:"memo,omitempty"`
	Nonce  string          `json:"nonce"`
}

type broadcastResult struct {
	TxHash string `json:"tx_hash"`
}

// SubmitTransfer signs req with the configured signer and broadcasts
// it, returning the node-assigned transaction hash.
func (c *Client) SubmitTransfer(ctx context.Context, req TransferRequest) (string, error) {
	if c.signer == nil {
		return "", ErrNoSigner
	}
	if err := c.validate.Struct(req); err != nil {
		return "", errors.Wrap(err, "invalid transfer")
	}

	raw := rawTransfer{
		From:   c.signer.PublicKey().Address().String(),
		To:     req.To,
		Denom:  req.Denom,
		Amount: req.Amount,
		Memo:   req.Memo,
		Nonce:  uuid.NewString(),
	}
	txJSON, err := json.Marshal(raw)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode transfer")
	}

	signature, err := c.signer.Sign(ethcrypto.Keccak256(txJSON))
	if err != nil {
		return "", errors.Wrap(err, "failed to sign transfer")
	}
	payload, err := SwitchEncoding(string(txJSON), EncodingUTF8, EncodingBase64)
	if err != nil {
		return "", err
	}

	res, err := c.call(ctx, rpc.MethodBroadcastTransaction, map[string]any{
		"payload":   payload,
		"signature": signature,
	})
	if err != nil {
		return "", err
	}
	var out broadcastResult
	if err := res.DecodeResult(&out); err != nil {
		return "", errors.Wrap(err, "broadcast rejected")
	}
	c.lg.Info("transfer broadcast", "tx_hash", out.TxHash, "to", req.To, "denom", req.Denom)
	return out.TxHash, nil
}

type authChallenge struct {
	ChallengeToken string `json:"challenge_token"`
}

type authResult struct {
	JwtToken string `json:"jwt_token"`
}

// Authenticate runs the node's challenge/response flow: request a
// challenge for the signer's address, sign its digest, and exchange the
// signature for a JWT. The token is attached to subsequent calls until
// it expires.
func (c *Client) Authenticate(ctx context.Context) error {
	if c.signer == nil {
		return ErrNoSigner
	}
	address := c.signer.PublicKey().Address().String()

	res, err := c.call(ctx, rpc.MethodAuth, map[string]any{"address": address})
	if err != nil {
		return err
	}
	var challenge authChallenge
	if err := res.DecodeResult(&challenge); err != nil {
		return errors.Wrap(err, "auth challenge rejected")
	}

	signature, err := c.signer.Sign(ethcrypto.Keccak256([]byte(challenge.ChallengeToken)))
	if err != nil {
		return errors.Wrap(err, "failed to sign challenge")
	}

	res, err = c.call(ctx, rpc.MethodAuth, map[string]any{
		"address":         address,
		"challenge_token": challenge.ChallengeToken,
		"signature":       signature,
	})
	if err != nil {
		return err
	}
	var out authResult
	if err := res.DecodeResult(&out); err != nil {
		return errors.Wrap(err, "auth verification rejected")
	}

	expiry := tokenExpiry(out.JwtToken)
	c.authMu.Lock()
	c.authToken = out.JwtToken
	c.authExpiry = expiry
	c.authMu.Unlock()

	c.lg.Info("authenticated", "address", address, "expires", expiry)
	return nil
}

// IsAuthenticated reports whether the client holds an unexpired token.
func (c *Client) IsAuthenticated() bool {
	return c.currentAuthToken() != ""
}

func (c *Client) currentAuthToken() string {
	c.authMu.RLock()
	defer c.authMu.RUnlock()

	if c.authToken == "" {
		return ""
	}
	if !c.authExpiry.IsZero() && !time.Now().Before(c.authExpiry) {
		return ""
	}
	return c.authToken
}

// tokenExpiry reads the expiry claim without verifying the signature;
// the node, not the client, is the token's verifier.
func tokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
