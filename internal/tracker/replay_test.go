package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mihirargulkar/polymaster/internal/domain"
)

func replayConfig(bankroll float64) Config {
	cfg := DefaultConfig()
	cfg.StartingBankroll = bankroll
	return cfg
}

func TestReplayLedger_Deterministic(t *testing.T) {
	alerts := []domain.Alert{
		makeAlert(1, 0.50, "YES"),
		makeAlert(2, 0.40, "NO"),
		makeAlert(3, 0.60, ""),
		makeAlert(4, 0.98, ""), // sobre el techo, nunca staked
	}
	cfg := replayConfig(67.22)

	first := replayLedger(alerts, cfg)
	second := replayLedger(alerts, cfg)

	assert.Equal(t, first.Bankroll, second.Bankroll)
	assert.Equal(t, first.Updates, second.Updates)
	assert.Equal(t, len(first.Staked), len(second.Staked))
}

func TestReplayLedger_PriceCeiling(t *testing.T) {
	alerts := []domain.Alert{
		makeAlert(1, 0.96, ""),
		makeAlert(2, 0.98, ""),
		makeAlert(3, 0.97, ""), // el techo es exclusivo
	}
	result := replayLedger(alerts, replayConfig(100))

	require.Len(t, result.Staked, 1)
	assert.Equal(t, int64(1), result.Staked[0].ID)

	require.Len(t, result.Updates, 3)
	assert.Equal(t, 5.0, result.Updates[0].StakedAmount)
	assert.Zero(t, result.Updates[1].StakedAmount)
	assert.Zero(t, result.Updates[2].StakedAmount)
}

func TestReplayLedger_ReserveFloor(t *testing.T) {
	alert := []domain.Alert{makeAlert(1, 0.50, "")}

	// 16 - 5 = 11 >= 10: entra
	result := replayLedger(alert, replayConfig(16))
	require.Len(t, result.Staked, 1)
	assert.InDelta(t, 11.0, result.Bankroll, 1e-9)

	// 14 - 5 = 9 < 10: no entra, bankroll intacto
	result = replayLedger(alert, replayConfig(14))
	assert.Empty(t, result.Staked)
	assert.InDelta(t, 14.0, result.Bankroll, 1e-9)
}

func TestReplayLedger_WinPayout(t *testing.T) {
	// Entrada a 0.50 con bet 5: 10 shares, payout 10, PnL +5
	result := replayLedger([]domain.Alert{makeAlert(1, 0.50, "YES")}, replayConfig(67.22))

	require.Len(t, result.Updates, 1)
	u := result.Updates[0]
	assert.InDelta(t, 5.0, u.StakedAmount, 1e-9)
	assert.InDelta(t, 5.0, u.PnL, 1e-9)
	assert.False(t, u.Active)
	assert.InDelta(t, 72.22, result.Bankroll, 1e-9)
}

func TestReplayLedger_LossForfeitsStake(t *testing.T) {
	result := replayLedger([]domain.Alert{makeAlert(1, 0.50, "NO")}, replayConfig(67.22))

	u := result.Updates[0]
	assert.InDelta(t, -5.0, u.PnL, 1e-9)
	assert.False(t, u.Active)
	assert.InDelta(t, 62.22, result.Bankroll, 1e-9)
}

func TestReplayLedger_VoidIsBreakeven(t *testing.T) {
	result := replayLedger([]domain.Alert{makeAlert(1, 0.50, domain.SettledVoid)}, replayConfig(67.22))

	u := result.Updates[0]
	assert.InDelta(t, 5.0, u.StakedAmount, 1e-9)
	assert.Zero(t, u.PnL)
	assert.False(t, u.Active)
	assert.InDelta(t, 67.22, result.Bankroll, 1e-9)
}

func TestReplayLedger_UnsettledStaysActive(t *testing.T) {
	result := replayLedger([]domain.Alert{makeAlert(1, 0.50, "")}, replayConfig(67.22))

	u := result.Updates[0]
	assert.True(t, u.Active)
	assert.Zero(t, u.PnL)
	assert.InDelta(t, 62.22, result.Bankroll, 1e-9) // stake comprometido
}

func TestReplayLedger_SequentialBankrollGate(t *testing.T) {
	// Con 22 de bankroll y reserva 10 solo caben dos stakes de 5:
	// 22 → 17 → 12, y el tercero dejaría 7 < 10.
	alerts := []domain.Alert{
		makeAlert(1, 0.50, ""),
		makeAlert(2, 0.50, ""),
		makeAlert(3, 0.50, ""),
	}
	result := replayLedger(alerts, replayConfig(22))

	require.Len(t, result.Staked, 2)
	assert.Equal(t, int64(1), result.Staked[0].ID)
	assert.Equal(t, int64(2), result.Staked[1].ID)
	assert.Zero(t, result.Updates[2].StakedAmount)
	assert.InDelta(t, 12.0, result.Bankroll, 1e-9)
}

func TestReplayLedger_SettledCapitalFreesReserve(t *testing.T) {
	// Un win temprano devuelve capital: el alert posterior sí entra aunque
	// el bankroll inicial solo alcanzara para uno.
	alerts := []domain.Alert{
		makeAlert(1, 0.50, "YES"), // +5 neto
		makeAlert(2, 0.50, ""),
	}
	result := replayLedger(alerts, replayConfig(16))

	require.Len(t, result.Staked, 2)
	// 16 -5 +10 = 21; 21 - 5 = 16 final
	assert.InDelta(t, 16.0, result.Bankroll, 1e-9)
}

func TestReplayLedger_FarFutureTitleSkipped(t *testing.T) {
	a := makeAlert(1, 0.50, "")
	a.MarketTitle = "Will BTC reach 200k by December?"
	result := replayLedger([]domain.Alert{a}, replayConfig(67.22))

	assert.Empty(t, result.Staked)
	assert.Zero(t, result.Updates[0].StakedAmount)
}
