// Copyright (c) 2022 The rcproxy Authors
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

package constant

// TitleSlowLog prefixes any command whose handler ran past the
// configured slow-log threshold.
const TitleSlowLog = "[slowlog]"

// DefaultDatabases is the database count used when config.db.db_num is
// absent or zero.
const DefaultDatabases = 16

// MaxBulkLen is the default cap on a single bulk-string length in a
// request, matching the parser's LenCR overflow check.
const MaxBulkLen = 65535

// MaxArrayLen is the default cap on the number of bulk strings in a
// single request array.
const MaxArrayLen = 65535
