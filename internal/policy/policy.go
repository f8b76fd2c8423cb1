// Package policy decides, per user and asset, whether an operation is
// permitted. Decisions combine role (superuser, managers group) and
// relationship (assignee) and are recomputed on every call: group
// membership can change between requests, so nothing here is cached.
package policy

import "assetd/internal/models"

// ManagersGroup is the group name granting broad view/manage access
// independent of assignment. If the group does not exist, membership is
// simply false for everyone; its absence is never an error.
const ManagersGroup = "managers"

// Decision is the tagged outcome of a policy check.
type Decision struct {
	allowed bool
	reason  string
}

// Allow returns a permitting decision.
func Allow() Decision {
	return Decision{allowed: true}
}

// Deny returns a forbidding decision carrying the reason it was refused.
func Deny(reason string) Decision {
	return Decision{reason: reason}
}

// Allowed reports whether the decision permits the operation.
func (d Decision) Allowed() bool { return d.allowed }

// Reason returns why the operation was refused; empty when allowed.
func (d Decision) Reason() string { return d.reason }

// CanView decides whether user may see the asset, in list or detail.
func CanView(user models.User, asset models.Asset) Decision {
	if user.Superuser {
		return Allow()
	}
	if asset.AssignedToID != nil && *asset.AssignedToID == user.ID {
		return Allow()
	}
	if user.InGroup(ManagersGroup) {
		return Allow()
	}
	return Deny("not the assignee, a manager, or a superuser")
}

// CanCreate decides whether user may create new assets.
func CanCreate(user models.User) Decision {
	if user.Superuser || user.InGroup(ManagersGroup) {
		return Allow()
	}
	return Deny("not a manager or a superuser")
}

// CanManage decides whether user may update or delete the asset.
// Management is role based only; being the assignee is not enough.
func CanManage(user models.User, asset models.Asset) Decision {
	if user.Superuser || user.InGroup(ManagersGroup) {
		return Allow()
	}
	return Deny("not a manager or a superuser")
}
