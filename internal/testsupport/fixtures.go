package testsupport

// ProjectManifest is a small project used across package tests.
//
// Ownership: Main claims prefab/hero, mat/hero, tex/hero, audio/jump and
// tex/shared (tex/hero and tex/shared sit in Group_Level and are mis-owned).
// Level claims mat/rock and tex/rock. Credits claims nothing. tex/stale is the
// only orphan. mat/hero -> prefab/hero closes a cycle.
//
// Duplicates: audio/jump_copy matches audio/jump within 1e-4.
//
// Policy: tex/loose is a sprite outside every atlas, tex/rock is oversized,
// audio/jump_copy and audio/music use the wrong load type.
const ProjectManifest = `
entities:
  - id: scene/main
    kind: scene
    name: Main
    anchor: true
    anchor_order: 0
    references: [prefab/hero, tex/shared]
  - id: scene/level
    kind: scene
    name: Level
    anchor: true
    anchor_order: 1
    references: [tex/shared, mat/rock]
  - id: scene/credits
    kind: scene
    name: Credits
    anchor: true
    anchor_order: 2
  - id: prefab/hero
    kind: prefab
    name: Hero
    group: Group_Main
    references: [mat/hero, audio/jump]
  - id: mat/hero
    kind: material
    name: HeroMat
    group: Group_Main
    references: [tex/hero, prefab/hero]
  - id: tex/hero
    kind: texture
    name: hero
    group: Group_Level
    size_bytes: 262144
    attributes: {sprite: true, max_size: 1024, width: 512, height: 512}
  - id: tex/shared
    kind: texture
    name: shared
    group: Group_Level
    size_bytes: 65536
    attributes: {max_size: 512, width: 256, height: 256}
  - id: mat/rock
    kind: material
    name: Rock
    group: Group_Level
    references: [tex/rock, ghost/missing]
  - id: tex/rock
    kind: texture
    name: rock
    group: Group_Level
    size_bytes: 4194304
    attributes: {max_size: 4096, width: 4096, height: 4096}
  - id: tex/stale
    kind: texture
    name: stale
    group: Group_Level
    size_bytes: 1024
    attributes: {max_size: 256, width: 64, height: 64}
  - id: tex/loose
    kind: texture
    name: loose
    size_bytes: 2048
    attributes: {sprite: true, max_size: 256, width: 32, height: 32}
  - id: atlas/ui
    kind: atlas
    name: UI
    references: [tex/hero]
  - id: audio/jump
    kind: audio
    name: jump
    group: Group_Main
    size_bytes: 16
    attributes: {sample_count: 4, channels: 1, sample_rate: 44100, duration_seconds: 0.5, load_type: decompress_on_load, compression_format: adpcm}
    samples: [0, 0.5, -0.5, 1]
  - id: audio/jump_copy
    kind: audio
    name: jump_copy
    size_bytes: 16
    attributes: {sample_count: 4, channels: 1, sample_rate: 44100, duration_seconds: 0.5, load_type: compressed_in_memory, compression_format: adpcm}
    samples: [0, 0.50001, -0.5, 1]
  - id: audio/music
    kind: audio
    name: music
    size_bytes: 32
    attributes: {sample_count: 8, channels: 2, sample_rate: 44100, duration_seconds: 120, load_type: compressed_in_memory, compression_format: vorbis}
    samples: [0, 0, 0.1, 0.1, 0.2, 0.2, 0.3, 0.3]
`
