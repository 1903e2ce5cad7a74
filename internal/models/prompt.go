package models

import (
	"errors"
	"time"
)

// OwnerKind identifies who submitted a prompt.
type OwnerKind string

const (
	OwnerNone  OwnerKind = "none"
	OwnerUser  OwnerKind = "user"
	OwnerAdmin OwnerKind = "admin"
)

// ErrAmbiguousOwner is returned when a prompt names both a user and an admin.
var ErrAmbiguousOwner = errors.New("prompt cannot belong to both a user and an admin")

// Owner is the submitter of a prompt: a user, an admin, or nobody.
type Owner struct {
	Kind OwnerKind `json:"kind"`
	ID   string    `json:"id,omitempty"`
}

func NoOwner() Owner { return Owner{Kind: OwnerNone} }

func UserOwner(id string) Owner { return Owner{Kind: OwnerUser, ID: id} }

func AdminOwner(id string) Owner { return Owner{Kind: OwnerAdmin, ID: id} }

// OwnerFromRefs builds an Owner from the optional userId/adminId pair accepted on the wire.
func OwnerFromRefs(userID, adminID string) (Owner, error) {
	switch {
	case userID != "" && adminID != "":
		return Owner{}, ErrAmbiguousOwner
	case userID != "":
		return UserOwner(userID), nil
	case adminID != "":
		return AdminOwner(adminID), nil
	default:
		return NoOwner(), nil
	}
}

// Prompt is one submitted request/response exchange against a model.
type Prompt struct {
	ID           string    `json:"id"`
	Owner        Owner     `json:"owner"`
	LLMID        string    `json:"llmId"`
	LLM          *LLM      `json:"llm"` // Expanded on listing; null once the model is deleted
	PromptText   string    `json:"promptText"`
	ResponseText string    `json:"responseText"`
	CreatedAt    time.Time `json:"createdAt"`
}

// PromptRequest is the input to the dispatch pipeline.
type PromptRequest struct {
	Owner      Owner
	LLMID      string
	PromptText string
}

// PromptFilter narrows prompt listings. Empty fields match everything.
type PromptFilter struct {
	UserID  string
	AdminID string
	LLMID   string
}
