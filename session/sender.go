/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package session

import (
	"context"

	"github.com/lattice-fix/fixengine/transport"
)

// TransportSender adapts a transport.Transport, plus a long-lived context
// for the session's I/O thread, to the Sender interface Session needs.
// Context cancellation (shutdown, per-operation timeout) surfaces as the
// error from Send, same as any other transport failure.
type TransportSender struct {
	Transport transport.Transport
	Ctx       context.Context
}

// Send implements Sender.
func (t TransportSender) Send(buf []byte) error {
	return t.Transport.Send(t.Ctx, buf)
}
