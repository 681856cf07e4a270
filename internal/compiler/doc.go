// Package compiler resolves the names of a parsed mechanism program and
// builds the handle-linked sim.Simulation the solver runs on.
//
// Compilation makes three passes over the program: joints, then links, then
// constraints in declaration order. Name to handle maps live only for the
// duration of one call; callers that need names afterwards use the Symbols
// table returned by CompileWithSymbols.
package compiler
