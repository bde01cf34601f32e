// Copyright 2026 The Goboltz Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package species

// AllKinds lists every species kind in a stable order (the registry
// test walks it; pert.Builder builds its roster without it).
func AllKinds() []Kind {
	return []Kind{Photon, Baryon, CDM, UR, IDR, IDMDR, DCDM, DR, NCDM, FLD, SCF}
}

// Registered reports whether a kind has an allocator installed; its
// caller is the registry test (config validation does not use it).
func Registered(kind Kind) bool {
	_, ok := allocators[kind]
	return ok
}
