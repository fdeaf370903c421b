// ec2 provisions and destroys the webstack topology against the AWS EC2
// control plane.
//
// # Topology
//
// One stack is always the same fixed set of resources, created in order:
//  1. VPC (DNS support + hostnames enabled)
//  2. Subnet (public IP on launch, optionally pinned to an AZ)
//  3. Internet gateway, attached to the VPC
//  4. Default route (0.0.0.0/0) on the VPC main route table
//  5. Security group (SSH from the operator address only, the web port from
//     anywhere)
//  6. Key pair (ED25519 generated locally, public half imported)
//  7. Instance (launched with a rendered boot script as user-data)
//
// # State
//
// Every created resource is appended to a JSON state file before the next
// one is created, so a crashed apply can always be destroyed. Destroy walks
// the ledger in reverse, tolerating resources that are already gone.
//
// An apply over a complete state is a no-op, unless the boot script
// fingerprint changed, in which case only the instance is replaced.
//
// # Converge
//
// Beyond the boot script, the provisioner can talk to dockerd on the
// instance through an SSH-tunneled docker client to verify the web container
// and recreate it if it has drifted or died. The boot script itself has no
// recovery logic; this path is where convergence lives.
package ec2
