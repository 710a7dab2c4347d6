// Package fees computes the platform's cut of a seller leg. Pure integer-cent
// arithmetic; results must be bit-exact for reconciliation and auditing.
package fees

// Split divides a seller subtotal into the platform fee and the net amount
// transferred to the seller. The rate is expressed in basis points (1500 =
// 15%) and the fee is rounded half-up on whole cents, so
// feeCents + netCents == subtotalCents always holds.
func Split(subtotalCents, rateBasisPoints int64) (feeCents, netCents int64) {
	if subtotalCents <= 0 || rateBasisPoints <= 0 {
		return 0, subtotalCents
	}
	feeCents = (subtotalCents*rateBasisPoints + 5000) / 10000
	netCents = subtotalCents - feeCents
	return feeCents, netCents
}
