// Package native is the production engine.Engine.
//
// Identity classes (I2PClientFactory, I2PClient, Destination, Base64 and
// ByteArrayOutputStream) are served in-process by lib/keys, so keypair
// generation needs neither a JVM nor a router. Router and I2PTunnel
// instances are supervised java subprocesses started from the jars under
// <base>/lib. Router health and graceful shutdown go through the router's
// I2PControl endpoint when a client is configured.
//
// One Engine is shared by every component in the process. Close terminates
// every child process it started.
package native
