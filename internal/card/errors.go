package card

import "errors"

// errNoKey marks a slot with no generated or imported key material;
// handlers translate it to cardio.ErrReferenceDataNotFound.
var errNoKey = errors.New("card: no key material in slot")
