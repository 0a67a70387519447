package sessiongrp

import (
	"github.com/ardanlabs/ballot/business/core/contract"
	"github.com/ardanlabs/ballot/business/core/session"
)

// AppConnection is the connection as shown to the dashboard.
type AppConnection struct {
	Chain     session.Chain     `json:"chain"`
	Account   session.Account   `json:"account"`
	Contracts map[string]string `json:"contracts,omitempty"`
	Connected bool              `json:"connected"`
}

func toAppConnection(conn session.Connection) AppConnection {
	app := AppConnection{
		Chain:     conn.Chain,
		Account:   conn.Account,
		Connected: conn.Connected,
	}

	for _, name := range []string{contract.Voting, contract.Donation} {
		if h := conn.Contract(name); h != nil {
			if app.Contracts == nil {
				app.Contracts = make(map[string]string)
			}
			app.Contracts[name] = h.Address
		}
	}

	return app
}

// AppBalance is the balance of the connected account.
type AppBalance struct {
	Account string `json:"account"`
	Balance uint64 `json:"balance"`
}

// SelectChain picks the active chain.
type SelectChain struct {
	Name string `json:"name" validate:"required"`
}

// SelectAccount picks the active account by name or address.
type SelectAccount struct {
	Account string `json:"account" validate:"required"`
}
