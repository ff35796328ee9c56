// Package lineup implements the happiness score of handing treats to a line
// of puppies, one treat at a time.
package lineup
