// Package uplink negotiates the one-way video channel to the classification service.
//
// The Negotiator opens the camera, offers its tracks as send-only transceivers,
// waits for ICE gathering to finish so the offer carries every candidate, and
// applies the answer returned by the signaling endpoint. All media is released
// on every failure path and on Stop.
package uplink
