package rpc

// RPCError represents a JSON-RPC error response
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return e.Message
}

// TokenAmount represents token balance information
type TokenAmount struct {
	Amount         string  `json:"amount"`
	Decimals       uint8   `json:"decimals"`
	UIAmountString string  `json:"uiAmountString"`
	UIAmount       float64 `json:"uiAmount"`
}

// parsedAccountInfo is the jsonParsed payload of one SPL token account
type parsedAccountInfo struct {
	Mint        string      `json:"mint"`
	Owner       string      `json:"owner"`
	TokenAmount TokenAmount `json:"tokenAmount"`
}

type parsedAccountData struct {
	Parsed struct {
		Info parsedAccountInfo `json:"info"`
		Type string            `json:"type"`
	} `json:"parsed"`
	Program string `json:"program"`
}

type tokenAccountEntry struct {
	Pubkey  string `json:"pubkey"`
	Account struct {
		Data parsedAccountData `json:"data"`
	} `json:"account"`
}

// TokenAccountsResponse is the raw response from getTokenAccountsByOwner
type TokenAccountsResponse struct {
	Result struct {
		Value []tokenAccountEntry `json:"value"`
	} `json:"result"`
	Error *RPCError `json:"error"`
}

// TokenAccount is one flattened SPL token account of the scanned owner
type TokenAccount struct {
	Address  string
	Mint     string
	UIAmount float64
	Decimals uint8
	Amount   string // raw integer minor units as string
}

// SignatureStatus is one entry from getSignatureStatuses
type SignatureStatus struct {
	Slot               uint64      `json:"slot"`
	Confirmations      *uint64     `json:"confirmations"`
	Err                interface{} `json:"err"`
	ConfirmationStatus string      `json:"confirmationStatus"`
}

// SignatureStatusesResponse is the raw response from getSignatureStatuses
type SignatureStatusesResponse struct {
	Result struct {
		Value []*SignatureStatus `json:"value"`
	} `json:"result"`
	Error *RPCError `json:"error"`
}
