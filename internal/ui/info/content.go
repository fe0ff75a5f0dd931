package info

// AboutText is shown on the About page.
const AboutText = `Gvail is a disposable-email client for the terminal: it provisions a
temporary mailbox against the Mail.tm API, polls for incoming messages,
and renders them without ever asking who you are.

There are no registrations, no passwords to remember, and no tracking.
Generate an address, use it, and throw it away. The session lives only
on your machine; the mail lives only on the provider's servers, behind
a token that never leaves your device.

Gvail is ad-free and keeps no logs of its own. Addresses and their
contents expire according to the provider's retention policy.`

// VisionText is shown on the Vision page.
const VisionText = `Our vision is to make digital privacy the default, not a feature.
Every signup form, trial account, and one-off verification deserves a
throwaway address, and getting one should cost a single keypress.
Gvail aims to be the tool you forget is there: always an address,
never a trace.`

// PrivacyText is shown on the Privacy page.
const PrivacyText = `Privacy policy

1. What we collect: nothing. Gvail requires no signup, no name, and no
   real email address. The generated addresses are temporary.

2. Local state: the current mailbox session and your display preference
   are stored on your machine only — the session record in a local
   database, the account password in your system keyring. Neither is
   transmitted anywhere except to the mail provider itself.

3. Retention: received mail is processed and stored by the Mail.tm API
   under its own retention policy. Deleting your address requests
   deletion of the provider-side account.

4. Third parties: Gvail talks to exactly one external service, the
   mail provider's API. We do not control and are not responsible for
   the content of the mail you receive.

5. Security: transport is HTTPS throughout. No method of transmission
   or storage is perfectly secure; do not route sensitive accounts
   through a disposable mailbox.`
