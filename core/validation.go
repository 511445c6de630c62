// Copyright 2025 Evidentia Works
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


package core

import (
	"fmt"
	"time"
)

// ValidateMessage validates a Message according to domain rules.
//
// Validation rules:
//   - Text must not be empty
//   - Role must be valid (User or Assistant)
//   - Timestamp must not be in the future
//
// NOT validated:
//   - Citations (absent on user messages and instant replies)
//   - Grounded (GroundingUnknown is valid for unverified paths)
func ValidateMessage(msg *Message) error {
	if msg == nil {
		return fmt.Errorf("%w: message is nil", ErrInvalidMessage)
	}

	if msg.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, ErrEmptyText)
	}

	if err := ValidateRole(msg.Role); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}

	if !IsValidTimestamp(msg.Timestamp) {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, ErrInvalidTimestamp)
	}

	return nil
}

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - Text must not be empty
//   - Collection must not be empty
//   - ParentId must be set (every chunk belongs to a parent span)
//
// NOT validated:
//   - Vector (can be empty until the embedding processor runs)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyText)
	}

	if chunk.Collection == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyCollection)
	}

	if chunk.ParentId == 0 {
		return fmt.Errorf("%w: missing parent reference", ErrInvalidChunk)
	}

	return nil
}

// ValidateParent validates a ParentContext according to domain rules.
func ValidateParent(parent *ParentContext) error {
	if parent == nil {
		return fmt.Errorf("%w: parent is nil", ErrInvalidParent)
	}

	if parent.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidParent, ErrEmptyText)
	}

	if parent.Collection == "" {
		return fmt.Errorf("%w: %w", ErrInvalidParent, ErrEmptyCollection)
	}

	return nil
}

// ValidateRole validates that a Role has a valid value.
func ValidateRole(role Role) error {
	if role != RoleUser && role != RoleAssistant {
		return fmt.Errorf("%w: value %d", ErrInvalidRole, role)
	}
	return nil
}

// IsValidTimestamp checks if a timestamp is valid (not in the future).
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now())
}
