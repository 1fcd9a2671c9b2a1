// Package domain contains the core entities of the study application:
// users, decks, flashcards and their immutable review records, study
// sessions, the per-user counter aggregates, and the guided quiz entities.
//
// Domain objects validate themselves through their constructors and
// Validate methods; they carry no persistence concerns. The spaced
// repetition scheduling rules live in the domain/srs subpackage.
package domain
