package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/atlas-erp/atlas-erp/internal/accounting/accounts"
)

func TestDemoChartNormalSidesMatchBalanceEnums(t *testing.T) {
	for _, a := range demoChart {
		side := accounts.NormalSideFor(a.typ)
		switch a.typ {
		case accounts.AccountTypeAsset, accounts.AccountTypeExpense:
			require.Equal(t, accounts.NormalSideDebit, side, "account %s", a.code)
		default:
			require.Equal(t, accounts.NormalSideCredit, side, "account %s", a.code)
		}
	}
	require.Equal(t, accounts.NormalSide("DEBIT"), accounts.NormalSideDebit)
	require.Equal(t, accounts.NormalSide("CREDIT"), accounts.NormalSideCredit)
}

func TestDemoChartRolesAreKnown(t *testing.T) {
	for _, a := range demoChart {
		if a.role == "" {
			continue
		}
		_, ok := accounts.SystemAccountDefaults[accounts.SystemRole(a.role)]
		require.True(t, ok, "role %s", a.role)
	}
}
