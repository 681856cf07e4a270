// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package sim holds the solver's native graph and the constraint engine that
// relaxes it.
//
// # Model
//
// A Simulation owns two generational stores (joints and links, see package
// arena) and an ordered list of constraints. Handles issued by one Simulation
// are only meaningful inside it; AddLink and AddConstraint refuse handles that
// do not resolve, so a Simulation built through its API never carries a
// dangling reference.
//
// # Relaxation
//
// Step runs 2×iterations passes. Each pass applies every constraint once, in
// declaration order, against the positions left by the previous constraint
// (Gauss-Seidel style). Coupled constraints converge over repeated passes; the
// projections (Plane, PrismaticVector, PrismaticLink) and FixedPosition are
// exact in a single application.
//
// No constraint ever panics on a missing joint or link: Apply becomes a no-op
// and IsSatisfied reports false.
package sim
