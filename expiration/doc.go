// Package expiration provides policies for controlling fragment expiry behavior.
//
// This package defines the ExpirationPolicy interface and several implementations that
// determine when cached fragments should be considered expired. These policies can be
// used with the fragment-cache package to customize staleness decisions.
package expiration
