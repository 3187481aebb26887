// Package access mediates every read of a user-provided comic file.
//
// Importing a file grants a capability token: an HS256-signed JWT binding
// the absolute path to the file identity seen at grant time. Opening a comic
// resolves the token back into a Handle with a lease deadline. Files under
// the bundled directory need no token. Handles must be released exactly
// once, and the Resolver tracks how many are outstanding.
package access
