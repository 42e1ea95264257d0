// Copyright 2025 Poiesic Systems
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

package badger

const (
	profilePrefix       = "prof:"
	profileURLPrefix    = "profurl:"
	profileVectorPrefix = "profvec:"
	profileIDSeq        = "profseq"
	checkpointPrefix    = "chkpt:"
	schemaVersionKey    = "schema:version"
)

// makeProfileKey generates a key for a profile document by storage id.
func makeProfileKey(id string) []byte {
	return []byte(profilePrefix + id)
}

// makeProfileURLKey generates the URL index key. Its value is the storage id.
func makeProfileURLKey(url string) []byte {
	return []byte(profileURLPrefix + url)
}

// makeProfileVectorKey generates a key for a profile's embedding.
func makeProfileVectorKey(id string) []byte {
	return []byte(profileVectorPrefix + id)
}

// makeCheckpointKey generates a key for processor checkpoints.
func makeCheckpointKey(processorType string) []byte {
	return []byte(checkpointPrefix + processorType)
}
