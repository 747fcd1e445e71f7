// Package clock provides an injectable time source. Production code uses
// System(); tests supply their own implementation to drive expiry logic
// deterministically.
package clock
