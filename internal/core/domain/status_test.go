package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorize_StatusGate(t *testing.T) {
	t.Parallel()

	verifier := Actor{ID: 2, Name: "vera", Roles: []Role{RoleVerifier}}

	tests := []struct {
		name    string
		action  Action
		from    Status
		actor   Actor
		wantErr bool
	}{
		{"submit from draft", ActionSubmit, StatusDraft, Actor{Name: "mark", Roles: []Role{RoleMaker}}, false},
		{"submit from approved rejected", ActionSubmit, StatusApproved, Actor{Name: "mark", Roles: []Role{RoleMaker}}, true},
		{"verify from pending verification", ActionVerify, StatusPendingVerification, verifier, false},
		{"verify from draft rejected", ActionVerify, StatusDraft, verifier, true},
		{"approve from pending approval", ActionApprove, StatusPendingApproval, Actor{Name: "ana", Roles: []Role{RoleAuthorizer}}, false},
		{"activate from approved", ActionActivate, StatusApproved, Actor{Name: "wally", Roles: []Role{RoleWarehouseman}}, false},
		{"activate from active rejected", ActionActivate, StatusActive, Actor{Name: "wally", Roles: []Role{RoleWarehouseman}}, true},
		{"return from active", ActionReturn, StatusActive, Actor{Name: "wally", Roles: []Role{RoleWarehouseman}}, false},
		{"return from partially returned", ActionReturn, StatusPartiallyReturned, Actor{Name: "cleo", Roles: []Role{RoleClerk}}, false},
		{"return from closed rejected", ActionReturn, StatusClosed, Actor{Name: "wally", Roles: []Role{RoleWarehouseman}}, true},
		{"extend from active", ActionExtend, StatusActive, Actor{Name: "cleo", Roles: []Role{RoleClerk}}, false},
		{"extend from approved rejected", ActionExtend, StatusApproved, Actor{Name: "cleo", Roles: []Role{RoleClerk}}, true},
		{"cancel from draft", ActionCancel, StatusDraft, Actor{Name: "mark", Roles: []Role{RoleMaker}}, false},
		{"cancel from pending approval", ActionCancel, StatusPendingApproval, Actor{Name: "ana", Roles: []Role{RoleAuthorizer}}, false},
		{"cancel from approved", ActionCancel, StatusApproved, Actor{Name: "ana", Roles: []Role{RoleAuthorizer}}, false},
		{"cancel from active rejected", ActionCancel, StatusActive, Actor{Name: "ana", Roles: []Role{RoleAuthorizer}}, true},
		{"cancel from canceled rejected", ActionCancel, StatusCanceled, Actor{Name: "ana", Roles: []Role{RoleAuthorizer}}, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := Authorize(tt.action, tt.from, tt.actor)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsPrecondition(err), "expected a precondition error, got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAuthorize_RoleGate(t *testing.T) {
	t.Parallel()

	// Scenario: verify attempted by a non-Verifier must fail naming the role.
	maker := Actor{ID: 1, Name: "mark", Roles: []Role{RoleMaker}}
	err := Authorize(ActionVerify, StatusPendingVerification, maker)
	require.Error(t, err)

	var pe *PreconditionError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, ActionVerify, pe.Action)
	assert.Contains(t, pe.Guard, "VERIFIER")
	assert.Contains(t, pe.Guard, "mark")
}

func TestAuthorize_AdminPassesEveryGate(t *testing.T) {
	t.Parallel()

	admin := Actor{ID: 9, Name: "root", Roles: []Role{RoleAdmin}}
	assert.NoError(t, Authorize(ActionVerify, StatusPendingVerification, admin))
	assert.NoError(t, Authorize(ActionApprove, StatusPendingApproval, admin))
	assert.NoError(t, Authorize(ActionActivate, StatusApproved, admin))
	assert.NoError(t, Authorize(ActionReturn, StatusActive, admin))
}

func TestAuthorize_SystemActorPassesOnItsRoles(t *testing.T) {
	t.Parallel()

	sys := SystemActor()
	assert.NoError(t, Authorize(ActionVerify, StatusPendingVerification, sys))
	assert.NoError(t, Authorize(ActionApprove, StatusPendingApproval, sys))
	assert.Error(t, Authorize(ActionActivate, StatusApproved, sys))
}

func TestAuthorize_ActorNameGrantsNothing(t *testing.T) {
	t.Parallel()

	// An account that happens to carry the audit name still needs the role.
	impostor := Actor{ID: 7, Name: SystemActorName, Roles: []Role{RoleMaker}}
	assert.Error(t, Authorize(ActionVerify, StatusPendingVerification, impostor))
	assert.Error(t, Authorize(ActionApprove, StatusPendingApproval, impostor))
}

func TestNextOnSubmit(t *testing.T) {
	t.Parallel()

	assert.Equal(t, StatusApproved, NextOnSubmit(CriticalityBasic))
	assert.Equal(t, StatusPendingVerification, NextOnSubmit(CriticalityCritical))
}

func TestCheckChecklist(t *testing.T) {
	t.Parallel()

	required := []string{"items_inspected", "quantities_match"}

	err := CheckChecklist(ActionVerify, required, map[string]bool{
		"items_inspected":  true,
		"quantities_match": true,
	})
	assert.NoError(t, err)

	err = CheckChecklist(ActionVerify, required, map[string]bool{
		"items_inspected": true,
	})
	require.Error(t, err)
	var pe *PreconditionError
	require.True(t, errors.As(err, &pe))
	assert.Contains(t, pe.Guard, "quantities_match")
}

func TestStatusLabel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "IN_PROGRESS", StatusActive.Label(KindMaintenance))
	assert.Equal(t, "COMPLETED", StatusClosed.Label(KindMaintenance))
	assert.Equal(t, "RETURNED", StatusClosed.Label(KindBorrowBatch))
	assert.Equal(t, "ACTIVE", StatusActive.Label(KindBorrowSingle))
	assert.Equal(t, "DRAFT", StatusDraft.Label(KindMaintenance))
}

func TestStatusTerminal(t *testing.T) {
	t.Parallel()

	assert.True(t, StatusClosed.IsTerminal())
	assert.True(t, StatusCanceled.IsTerminal())
	assert.False(t, StatusActive.IsTerminal())
	assert.False(t, StatusPartiallyReturned.IsTerminal())
}
