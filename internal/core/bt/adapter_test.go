package bt

import (
	"errors"
	"testing"

	gobt "github.com/joeycumines/go-behaviortree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdaptedMapsStatus(t *testing.T) {
	calls := 0
	foreign := gobt.New(gobt.Sequence,
		gobt.New(func([]gobt.Node) (gobt.Status, error) {
			calls++
			if calls < 2 {
				return gobt.Running, nil
			}
			return gobt.Success, nil
		}),
	)
	a := Adapt("foreign", foreign)
	tree := newTestTree(t, a)

	tree.Tick()
	assert.Equal(t, StatusRunning, a.Status())
	tree.Tick()
	assert.Equal(t, StatusSuccess, a.Status())
	assert.NoError(t, a.Err())
}

func TestAdaptedErrorFails(t *testing.T) {
	boom := errors.New("boom")
	a := Adapt("foreign", gobt.New(func([]gobt.Node) (gobt.Status, error) {
		return gobt.Failure, boom
	}))
	tree := newTestTree(t, a)
	tree.Tick()
	assert.Equal(t, StatusFailure, a.Status())
	assert.ErrorIs(t, a.Err(), boom)
}

func TestExportRunsTreeFromForeignHost(t *testing.T) {
	inner := NewTree("inner").SetRoot(NewSequence("seq", Succeed("a"), Succeed("b")))
	host := gobt.New(gobt.Selector, Export(inner))

	st, err := host.Tick()
	require.NoError(t, err)
	assert.Equal(t, gobt.Running, st)

	st, err = host.Tick()
	require.NoError(t, err)
	assert.Equal(t, gobt.Success, st)
}

func TestExportReportsContractViolation(t *testing.T) {
	inner := NewTree("inner").SetRoot(NewStatic("bad", StatusTerminated))
	_, err := Export(inner).Tick()
	var ce *ContractError
	require.ErrorAs(t, err, &ce)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
