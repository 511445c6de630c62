// Copyright 2025 Evidentia Works
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package keyword implements the lexical half of hybrid retrieval: a
// per-collection TF-IDF index over chunk text, persisted as versioned
// binary snapshots.
//
// Index is immutable after construction; Store serves indexes and swaps
// whole indexes atomically on rebuild, so Search needs no locking. Store
// loads snapshots lazily and treats any load failure as an empty index,
// keeping query availability independent of snapshot health.
package keyword
